package di

import (
	"context"
	"fmt"
	"time"

	"robust-element/internal/application/port/output"
	"robust-element/internal/application/robust"
	"robust-element/internal/infrastructure/browser/rod"
	"robust-element/internal/infrastructure/logger"
)

type Container struct {
	Browser output.BrowserPort
	Logger  output.LoggerPort
	// Robust is the configuration handed to every robust element lookup.
	Robust robust.Config
}

type Config struct {
	BrowserHeadless   bool
	BrowserSlowMotion time.Duration
	BrowserTimeout    time.Duration
	BrowserNoSandbox  bool
	BrowserStealth    bool
	BrowserDevTools   bool
	DisableXPath      bool

	ImpliedTimeout time.Duration
	ImplicitWait   time.Duration

	LogLevel  string
	LogToFile bool
	TaskName  string
}

// ConfigFromEnv reads the container configuration from the environment,
// falling back to defaults for unset or malformed keys.
func ConfigFromEnv(e output.ConfigPort) Config {
	browser := rod.DefaultConfig()
	return Config{
		BrowserHeadless:   e.GetBool("BROWSER_HEADLESS", browser.Headless),
		BrowserSlowMotion: e.GetDuration("BROWSER_SLOW_MOTION", 0),
		BrowserTimeout:    e.GetDuration("BROWSER_TIMEOUT", browser.Timeout),
		BrowserNoSandbox:  e.GetBool("BROWSER_NO_SANDBOX", false),
		BrowserStealth:    e.GetBool("BROWSER_STEALTH", false),
		BrowserDevTools:   e.GetBool("BROWSER_DEVTOOLS", false),
		DisableXPath:      e.GetBool("BROWSER_DISABLE_XPATH", false),
		ImpliedTimeout:    e.GetDuration("ROBUST_IMPLIED_TIMEOUT", robust.DefaultImpliedTimeout),
		ImplicitWait:      e.GetDuration("ROBUST_IMPLICIT_WAIT", 0),
		LogLevel:          e.GetWithDefault("LOG_LEVEL", "info"),
		LogToFile:         e.GetBool("LOG_TO_FILE", false),
	}
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{
		Level:    cfg.LogLevel,
		ToFile:   cfg.LogToFile,
		TaskName: cfg.TaskName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.SlowMotion = cfg.BrowserSlowMotion
	browserCfg.NoSandbox = cfg.BrowserNoSandbox
	browserCfg.Stealth = cfg.BrowserStealth
	browserCfg.DevTools = cfg.BrowserDevTools
	browserCfg.ImplicitWait = cfg.ImplicitWait
	browserCfg.DisableXPath = cfg.DisableXPath
	if cfg.BrowserTimeout > 0 {
		browserCfg.Timeout = cfg.BrowserTimeout
	}

	browser, err := rod.NewBrowserAdapter(ctx, browserCfg, log.WithField("component", "browser"))
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	robustCfg := robust.DefaultConfig()
	if cfg.ImpliedTimeout > 0 {
		robustCfg.ImpliedTimeout = cfg.ImpliedTimeout
	}
	robustCfg.Logger = log.WithField("component", "robust")

	return &Container{
		Browser: browser,
		Logger:  log,
		Robust:  robustCfg,
	}, nil
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
