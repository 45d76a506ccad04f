// Package display shells out to the host compositor to toggle the
// grayscale filter.
package display

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const commandTimeout = 3 * time.Second

// CommandToggler runs a configured executable with "1" or "0" as its
// final argument. The command is host-specific (gsettings on GNOME,
// a helper script elsewhere).
type CommandToggler struct {
	command string
	args    []string
	logger  *zap.Logger
}

func NewCommandToggler(command string, args []string, logger *zap.Logger) *CommandToggler {
	return &CommandToggler{command: command, args: args, logger: logger}
}

func (t *CommandToggler) SetGrayscale(ctx context.Context, enable bool) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	args := append(append([]string{}, t.args...), strconv.Itoa(boolArg(enable)))
	cmd := exec.CommandContext(ctx, t.command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("grayscale command: %w (output: %s)", err, out)
	}
	t.logger.Info("grayscale toggled", zap.Bool("enabled", enable))
	return nil
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NoopToggler is used when no display command is configured; state is
// still tracked so the API reflects what would have happened.
type NoopToggler struct {
	logger *zap.Logger
}

func NewNoopToggler(logger *zap.Logger) *NoopToggler {
	return &NoopToggler{logger: logger}
}

func (t *NoopToggler) SetGrayscale(_ context.Context, enable bool) error {
	t.logger.Info("grayscale toggle (no display command configured)", zap.Bool("enabled", enable))
	return nil
}
