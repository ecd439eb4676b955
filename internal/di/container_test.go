package di

import (
	"testing"
	"time"

	"robust-element/internal/application/robust"
	"robust-element/internal/infrastructure/env"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"BROWSER_STEALTH", "BROWSER_DEVTOOLS", "BROWSER_HEADLESS", "BROWSER_TIMEOUT", "ROBUST_IMPLIED_TIMEOUT", "ROBUST_IMPLICIT_WAIT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := ConfigFromEnv(&env.EnvService{})
	assert.True(t, cfg.BrowserHeadless)
	assert.False(t, cfg.BrowserStealth)
	assert.False(t, cfg.BrowserDevTools)
	assert.Equal(t, 10*time.Second, cfg.BrowserTimeout)
	assert.Equal(t, robust.DefaultImpliedTimeout, cfg.ImpliedTimeout)
	assert.Zero(t, cfg.ImplicitWait)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_DISABLE_XPATH", "true")
	t.Setenv("BROWSER_STEALTH", "true")
	t.Setenv("BROWSER_DEVTOOLS", "1")
	t.Setenv("ROBUST_IMPLIED_TIMEOUT", "3s")
	t.Setenv("ROBUST_IMPLICIT_WAIT", "250ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := ConfigFromEnv(&env.EnvService{})
	assert.False(t, cfg.BrowserHeadless)
	assert.True(t, cfg.DisableXPath)
	assert.True(t, cfg.BrowserStealth)
	assert.True(t, cfg.BrowserDevTools)
	assert.Equal(t, 3*time.Second, cfg.ImpliedTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.ImplicitWait)
	assert.Equal(t, "debug", cfg.LogLevel)
}
