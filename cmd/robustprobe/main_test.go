package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ExitCode(t *testing.T) {
	args := os.Args
	t.Cleanup(func() { os.Args = args })

	os.Args = []string{"robustprobe", "no-such-command"}
	assert.Equal(t, 1, run())

	os.Args = []string{"robustprobe", "--help"}
	assert.Equal(t, 0, run())
}
