// Package speech hands rendered announcements to a text-to-speech
// backend. The default backend shells out to the platform speech
// command; a no-op backend exists for headless installs and tests.
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog/log"
)

// Speaker speaks a rendered announcement aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Command speaks through an external speech command.
type Command struct {
	name string
	args []string
}

// NewCommand creates a speaker using the given command. An empty name
// selects the platform default: say on macOS, espeak elsewhere.
func NewCommand(name string, args ...string) *Command {
	if name == "" {
		if runtime.GOOS == "darwin" {
			name = "say"
		} else {
			name = "espeak"
		}
	}
	return &Command{name: name, args: args}
}

func (c *Command) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, c.args...), text)

	cmd := exec.CommandContext(ctx, c.name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech command failed: %w (%s)", err, out)
	}
	return nil
}

// Noop logs the text instead of speaking it.
type Noop struct{}

func (Noop) Speak(ctx context.Context, text string) error {
	log.Info().Str("text", text).Msg("Speech disabled, announcement logged")
	return nil
}
