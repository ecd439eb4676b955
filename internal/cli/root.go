package cli

import (
	"context"
	"fmt"
	"time"

	"robust-element/internal/application/port/output"
	"robust-element/internal/application/robust"
	"robust-element/internal/di"
	"robust-element/internal/domain/locator"
	"robust-element/internal/infrastructure/env"
	"robust-element/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

var (
	flagURL          string
	flagHeadless     bool
	flagTimeout      time.Duration
	flagImplicitWait time.Duration
	flagNoXPath      bool
	flagStealth      bool
	flagDevTools     bool
	flagVerbose      bool
	flagLogToFile    bool
)

var rootCmd = &cobra.Command{
	Use:   "robustprobe",
	Short: "robustprobe - read page elements through stale-safe references",
	Long: `robustprobe opens a page in Chromium and reads elements through
references that find their element again when the page re-renders.

Locators are kind=value pairs; a bare value is a CSS selector:
  id=main  name=q  class=item  tag=li  css=ul > li  xpath=//li  link=Home  partial-link=Hom

Examples:
  robustprobe text --url https://example.com tag=h1
  robustprobe text --url file:///tmp/list.html --index 2 class=item
  robustprobe count --url https://example.com tag=p
  robustprobe watch --url http://localhost:3000 --times 5 --interval 2s id=clock
  robustprobe screenshot --url https://example.com -o page.jpg`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagURL, "url", "u", "", "Page to open before running the command")
	rootCmd.PersistentFlags().BoolVar(&flagHeadless, "headless", true, "Run the browser without a window")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", robust.DefaultImpliedTimeout, "How long a reference keeps looking for its element")
	rootCmd.PersistentFlags().DurationVar(&flagImplicitWait, "implicit-wait", 0, "Implicit wait applied to plain find calls")
	rootCmd.PersistentFlags().BoolVar(&flagNoXPath, "no-xpath", false, "Resolve indexed references with CSS scripts only")
	rootCmd.PersistentFlags().BoolVar(&flagStealth, "stealth", false, "Open the page with go-rod/stealth evasions")
	rootCmd.PersistentFlags().BoolVar(&flagDevTools, "devtools", false, "Open DevTools for each tab (needs --headless=false)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogToFile, "log-file", false, "Write logs to ./log instead of stderr")

	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(attrCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(pageSourceCmd)
	rootCmd.AddCommand(screenshotCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// containerConfig starts from the environment and applies the flags the user
// set explicitly.
func containerConfig(cmd *cobra.Command) di.Config {
	cfg := di.ConfigFromEnv(env.NewEnvService())
	cfg.TaskName = cmd.Name()

	flags := cmd.Flags()
	if flags.Changed("headless") {
		cfg.BrowserHeadless = flagHeadless
	}
	if flags.Changed("timeout") {
		cfg.ImpliedTimeout = flagTimeout
	}
	if flags.Changed("implicit-wait") {
		cfg.ImplicitWait = flagImplicitWait
	}
	if flags.Changed("no-xpath") {
		cfg.DisableXPath = flagNoXPath
	}
	if flags.Changed("stealth") {
		cfg.BrowserStealth = flagStealth
	}
	if flags.Changed("devtools") {
		cfg.BrowserDevTools = flagDevTools
	}
	if flags.Changed("log-file") {
		cfg.LogToFile = flagLogToFile
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

type session struct {
	*di.Container
	ui output.UserInteractionPort
}

// withSession starts a browser, opens --url and runs fn against it.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := di.NewContainer(ctx, containerConfig(cmd))
	if err != nil {
		return err
	}
	defer c.Close()

	if flagURL != "" {
		if err := c.Browser.Navigate(ctx, flagURL); err != nil {
			return err
		}
	}

	s := &session{Container: c, ui: userinteraction.NewConsoleUserInteraction()}
	if err := fn(ctx, s); err != nil {
		c.Logger.Error("command failed", "command", cmd.Name(), "error", err)
		return err
	}
	return nil
}

// element resolves the target of a command and reports how it was resolved.
func (s *session) element(ctx context.Context, by locator.By, mode robust.Mode) (*robust.Element, error) {
	el, err := robust.GetElement(ctx, s.Browser, by, mode, s.Robust)
	if err != nil {
		return nil, err
	}
	s.ui.ShowResolution(ctx, el.Locator().String(), el.Mode().String(), el.Strategy().String())
	return el, nil
}

// target parses a locator argument together with the --index and --optional
// flags of the command.
func target(arg string, index int, optional bool) (locator.By, robust.Mode, error) {
	by, err := locator.Parse(arg)
	if err != nil {
		return locator.By{}, 0, err
	}

	switch {
	case optional && index >= 0:
		return locator.By{}, 0, fmt.Errorf("--optional cannot be combined with --index")
	case optional:
		return by, robust.Optional, nil
	case index < 0:
		return by, robust.First, nil
	}
	return by, robust.Nth(index), nil
}

func addTargetFlags(cmd *cobra.Command, index *int, optional *bool) {
	cmd.Flags().IntVarP(index, "index", "n", -1, "Zero-based match position (default: first match)")
	if optional != nil {
		cmd.Flags().BoolVar(optional, "optional", false, "Do not fail when nothing matches")
	}
}
