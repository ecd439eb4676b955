package output

import "context"

// UserInteractionPort is the terminal side of the probe commands.
type UserInteractionPort interface {
	WaitForUserAction(ctx context.Context, message string) error

	ShowResolution(ctx context.Context, locator, mode, strategy string)
	ShowAttempt(ctx context.Context, attempt, total int)
	ShowValue(ctx context.Context, label, value string)
	ShowError(ctx context.Context, err error)
}
