// Package audio hands synthesized speech to something that can play it.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/persona-chat/internal/model/speech"
)

// ErrNoPlayer is returned by NewCommandPlayer for an empty command line.
var ErrNoPlayer = errors.New("no audio player configured")

// CommandPlayer runs an external program with the audio url appended to its
// arguments, e.g. "mpv --no-video" or "ffplay -nodisp -autoexit".
// Play returns once the program has started.
type CommandPlayer struct {
	name   string
	args   []string
	logger *zap.Logger

	// start is swapped in tests.
	start func(cmd *exec.Cmd) error
}

// NewCommandPlayer parses a command line into a player. Arguments are split
// on whitespace; quoting is not supported.
func NewCommandPlayer(commandLine string, logger *zap.Logger) (*CommandPlayer, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, ErrNoPlayer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandPlayer{
		name:   fields[0],
		args:   fields[1:],
		logger: logger.Named("player"),
		start:  startDetached,
	}, nil
}

// Play starts the player process for ref and does not wait for it.
func (p *CommandPlayer) Play(_ context.Context, ref speechmodel.AudioRef) error {
	if ref.Empty() {
		return errors.New("empty audio reference")
	}

	args := append(append([]string(nil), p.args...), ref.URL)
	cmd := exec.Command(p.name, args...)
	if err := p.start(cmd); err != nil {
		return fmt.Errorf("start %s: %w", p.name, err)
	}
	p.logger.Debug("playback started", zap.String("command", p.name), zap.String("url", ref.URL))
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// NopPlayer ignores every reference.
type NopPlayer struct{}

// Play does nothing.
func (NopPlayer) Play(context.Context, speechmodel.AudioRef) error { return nil }
