package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"robust-element/internal/application/robust"
	"robust-element/internal/domain/entity"
	"robust-element/internal/infrastructure/browser/pagesource"

	"github.com/spf13/cobra"
)

var (
	textFlagIndex    int
	textFlagOptional bool
)

var textCmd = &cobra.Command{
	Use:   "text <locator>",
	Short: "Print the visible text of an element",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, mode, err := target(args[0], textFlagIndex, textFlagOptional)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			el, err := s.element(ctx, by, mode)
			if err != nil {
				return err
			}
			present, err := el.HasReference(ctx)
			if err != nil {
				return err
			}
			if !present {
				s.ui.ShowValue(ctx, "absent", by.String())
				return nil
			}
			text, err := el.Text(ctx)
			if err != nil {
				return err
			}
			s.ui.ShowValue(ctx, "", text)
			return nil
		})
	},
}

var attrFlagIndex int

var attrCmd = &cobra.Command{
	Use:   "attr <locator> <name>",
	Short: "Print an attribute of an element",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, mode, err := target(args[0], attrFlagIndex, false)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			el, err := s.element(ctx, by, mode)
			if err != nil {
				return err
			}
			v, err := el.Attribute(ctx, args[1])
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("attribute %q is not set", args[1])
			}
			s.ui.ShowValue(ctx, "", *v)
			return nil
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count <locator>",
	Short: "Print the number of matches, and their text with --verbose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _, err := target(args[0], -1, false)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			elements, err := robust.GetElements(ctx, s.Browser, by, s.Robust)
			if err != nil {
				return err
			}
			s.ui.ShowValue(ctx, "", strconv.Itoa(len(elements)))
			if !flagVerbose {
				return nil
			}
			for i, el := range elements {
				text, err := el.Text(ctx)
				if err != nil {
					return err
				}
				s.ui.ShowValue(ctx, fmt.Sprintf("[%d] %s", i, el.Strategy()), text)
			}
			return nil
		})
	},
}

var clickFlagIndex int

var clickCmd = &cobra.Command{
	Use:   "click <locator>",
	Short: "Click an element",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, mode, err := target(args[0], clickFlagIndex, false)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			el, err := s.element(ctx, by, mode)
			if err != nil {
				return err
			}
			if err := el.Click(ctx); err != nil {
				return err
			}
			s.ui.ShowValue(ctx, "url", s.Browser.CurrentURL())
			return nil
		})
	},
}

var pageSourceFlagMarkdown bool

var pageSourceCmd = &cobra.Command{
	Use:   "page-source",
	Short: "Print the page body without scripts and styles, or as markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			src, err := s.Browser.PageSource(ctx)
			if err != nil {
				return err
			}
			if pageSourceFlagMarkdown {
				if src, err = pagesource.Markdown(src, s.Browser.CurrentURL()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), src)
			return nil
		})
	},
}

var (
	screenshotFlagOut   string
	screenshotFlagIndex int
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot [locator]",
	Short: "Save a JPEG of the page or of one element",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			var (
				shot *entity.Screenshot
				err  error
			)
			if len(args) == 1 {
				by, mode, terr := target(args[0], screenshotFlagIndex, false)
				if terr != nil {
					return terr
				}
				el, terr := s.element(ctx, by, mode)
				if terr != nil {
					return terr
				}
				shot, err = el.Screenshot(ctx)
			} else {
				shot, err = s.Browser.Screenshot(ctx)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(screenshotFlagOut, shot.Data, 0o644); err != nil {
				return fmt.Errorf("write screenshot: %w", err)
			}
			s.ui.ShowValue(ctx, "saved", fmt.Sprintf("%s (%dx%d)", screenshotFlagOut, shot.Width, shot.Height))
			return nil
		})
	},
}

var (
	watchFlagIndex       int
	watchFlagTimes       int
	watchFlagInterval    time.Duration
	watchFlagInteractive bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <locator>",
	Short: "Read an element repeatedly through one reference while the page changes",
	Long: `watch resolves the element once and reads its text --times times.
Between reads it sleeps for --interval, or with --interactive waits for you
to change the page. Reads after a re-render go through the same reference.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, mode, err := target(args[0], watchFlagIndex, false)
		if err != nil {
			return err
		}
		if watchFlagTimes < 1 {
			return fmt.Errorf("--times must be at least 1")
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			el, err := s.element(ctx, by, mode)
			if err != nil {
				return err
			}
			for i := 1; i <= watchFlagTimes; i++ {
				if i > 1 {
					if err := pause(ctx, s); err != nil {
						return err
					}
				}
				s.ui.ShowAttempt(ctx, i, watchFlagTimes)
				text, err := el.Text(ctx)
				if err != nil {
					s.ui.ShowError(ctx, err)
					return err
				}
				s.ui.ShowValue(ctx, "text", text)
			}
			return nil
		})
	},
}

func pause(ctx context.Context, s *session) error {
	if watchFlagInteractive {
		return s.ui.WaitForUserAction(ctx, "change the page, then continue")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(watchFlagInterval):
		return nil
	}
}

func init() {
	addTargetFlags(textCmd, &textFlagIndex, &textFlagOptional)
	pageSourceCmd.Flags().BoolVar(&pageSourceFlagMarkdown, "markdown", false, "Convert the page to markdown")
	addTargetFlags(attrCmd, &attrFlagIndex, nil)
	addTargetFlags(clickCmd, &clickFlagIndex, nil)
	addTargetFlags(screenshotCmd, &screenshotFlagIndex, nil)
	screenshotCmd.Flags().StringVarP(&screenshotFlagOut, "out", "o", "screenshot.jpg", "Output file")

	addTargetFlags(watchCmd, &watchFlagIndex, nil)
	watchCmd.Flags().IntVar(&watchFlagTimes, "times", 3, "Number of reads")
	watchCmd.Flags().DurationVar(&watchFlagInterval, "interval", time.Second, "Delay between reads")
	watchCmd.Flags().BoolVar(&watchFlagInteractive, "interactive", false, "Wait for Enter between reads instead of sleeping")
}
