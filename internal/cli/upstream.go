package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	upstreamHandler "github.com/zhouzirui/persona-chat/internal/handler/upstream"
	aiService "github.com/zhouzirui/persona-chat/internal/service/ai"
	speechService "github.com/zhouzirui/persona-chat/internal/service/speech"
)

func newUpstreamCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "upstream",
		Short: "Run a local persona chat service",
		Long: `Upstream serves /api/chat/ and /api/speak/. Replies come from the configured
chat model, or from canned lines when none is set. Speech is available
when SPEECH_APP_ID and SPEECH_ACCESS_TOKEN are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.upstreamHandler(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Upstream.Server.Addr
			}
			srv := newHTTPServer(addr, upstreamHandler.NewRouter(h))
			return listenAndRun(cmd.Context(), srv, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides UPSTREAM_PORT)")
	return cmd
}

func (a *app) upstreamHandler(cmd *cobra.Command) (*upstreamHandler.Handler, error) {
	cfg := a.cfg.Upstream
	opts := upstreamHandler.Options{
		Clips:     speechService.NewClipStore(cfg.AudioCache),
		PublicURL: cfg.PublicURL,
		Logger:    a.logger,
	}

	if cfg.AI.Enabled() {
		registry, err := a.registry()
		if err != nil {
			return nil, err
		}
		chatModel, err := cfg.AI.NewChatModel(cmd.Context())
		if err != nil {
			return nil, err
		}
		gen, err := aiService.NewChainGenerator(cmd.Context(), chatModel, registry, a.logger)
		if err != nil {
			return nil, err
		}
		opts.Generator = gen
		a.logger.Info("chat model enabled", zap.String("model", cfg.AI.Model))
	} else {
		a.logger.Info("no chat model configured, using canned replies")
	}

	if cfg.Speech.Enabled() {
		tts, err := speechService.NewVolcengineTTS(cfg.Speech, speechService.WithTTSLogger(a.logger))
		if err != nil {
			return nil, err
		}
		opts.TTS = tts
	} else {
		a.logger.Info("speech credentials missing, /api/speak/ will answer 503")
	}

	return upstreamHandler.New(opts), nil
}
