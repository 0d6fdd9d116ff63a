// Package cli defines the personachat cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/config"
	"github.com/zhouzirui/persona-chat/internal/logging"
	"github.com/zhouzirui/persona-chat/internal/model/persona"
)

var version = "dev" // set via ldflags at build time

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	logLevel string
	baseURL  string
	envFiles []string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the personachat command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "personachat",
		Short: "Chat with fictional personas",
		Long: `personachat talks to a persona chat service: pick a character, exchange
messages, and have replies voiced. It ships a terminal UI, a browser
backend, and a local reference implementation of the service itself.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.StringVar(&a.baseURL, "base-url", "", "persona service base URL (overrides PERSONA_API_BASE_URL)")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	root.AddCommand(
		newServeCommand(a),
		newTUICommand(a),
		newUpstreamCommand(a),
		newCharactersCommand(a),
		newSpeakCommand(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.baseURL != "" {
		cfg.Client.BaseURL = strings.TrimRight(a.baseURL, "/")
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	if f := cmd.Flags().Lookup("log-file"); f != nil && f.Value.String() != "" {
		a.logger, err = logging.ToFile(cfg.Log.Level, f.Value.String())
	} else {
		a.logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
	}
	return err
}

// registry returns the character list from PERSONA_CHARACTERS_FILE, or the
// built-in one.
func (a *app) registry() (persona.Store, error) {
	path := a.cfg.Client.CharactersFile
	if path == "" {
		return persona.NewMemoryStore(persona.Seed()), nil
	}
	items, err := persona.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded character file", zap.String("path", path), zap.Int("characters", len(items)))
	return persona.NewMemoryStore(items), nil
}

func defaultTUILogFile() string {
	return filepath.Join(os.TempDir(), "personachat-tui.log")
}
