// Package focus reads the currently focused window title from the host
// desktop via a configured command (xdotool, swaymsg, a helper script).
package focus

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 2 * time.Second

// CommandProvider runs an executable whose stdout is the active window
// title.
type CommandProvider struct {
	command string
	args    []string
}

func NewCommandProvider(command string, args []string) *CommandProvider {
	return &CommandProvider{command: command, args: args}
}

func (p *CommandProvider) CurrentWindowTitle() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.command, p.args...).Output()
	if err != nil {
		return "", fmt.Errorf("focus command: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
