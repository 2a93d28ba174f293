package channels

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// DesktopNotifier shows desktop notifications through the platform
// notifier command: osascript on macOS, notify-send elsewhere.
type DesktopNotifier struct{}

// NewDesktopNotifier creates a desktop notifier.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{}
}

// Notify displays the notification and waits for the command to finish.
func (n *DesktopNotifier) Notify(ctx context.Context, title, body string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`display notification %q with title %q`,
			escapeAppleScript(body), escapeAppleScript(title))
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	} else {
		cmd = exec.CommandContext(ctx, "notify-send", "--icon=calendar", title, body)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("desktop notify: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
