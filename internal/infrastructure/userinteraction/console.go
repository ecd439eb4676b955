package userinteraction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"robust-element/internal/application/port/output"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return New(os.Stdin, color.Output)
}

func New(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (u *ConsoleUserInteraction) WaitForUserAction(ctx context.Context, message string) error {
	fmt.Fprintf(u.out, "\n[USER ACTION REQUIRED] %s\n", message)
	fmt.Fprint(u.out, "Press Enter when done...")

	read := make(chan error, 1)
	go func() {
		_, err := u.reader.ReadString('\n')
		read <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-read:
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to wait for user: %w", err)
		}
		return nil
	}
}

func (u *ConsoleUserInteraction) ShowResolution(ctx context.Context, locator, mode, strategy string) {
	dim := color.New(color.Faint)
	dim.Fprintf(u.out, "%s [%s] via %s\n", locator, mode, strategy)
}

func (u *ConsoleUserInteraction) ShowAttempt(ctx context.Context, attempt, total int) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "━━━ Read %d/%d ━━━\n", attempt, total)
}

func (u *ConsoleUserInteraction) ShowValue(ctx context.Context, label, value string) {
	if label == "" {
		fmt.Fprintln(u.out, value)
		return
	}
	green := color.New(color.FgGreen)
	green.Fprintf(u.out, "%s: ", label)
	fmt.Fprintln(u.out, truncate(value, 2000))
}

func (u *ConsoleUserInteraction) ShowError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(u.out, "error: ")
	fmt.Fprintln(u.out, err.Error())
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
