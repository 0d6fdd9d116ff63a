package cli

import (
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/client/chat"
	"github.com/zhouzirui/persona-chat/internal/client/speech"
	"github.com/zhouzirui/persona-chat/internal/service/audio"
	"github.com/zhouzirui/persona-chat/internal/service/conversation"
	"github.com/zhouzirui/persona-chat/internal/service/session"
)

// sessionDeps wires the registry and the remote clients. Playback is left
// to the caller.
func (a *app) sessionDeps() (session.Deps, error) {
	registry, err := a.registry()
	if err != nil {
		return session.Deps{}, err
	}

	chatClient, err := chat.New(a.cfg.Client.BaseURL, chat.WithLogger(a.logger))
	if err != nil {
		return session.Deps{}, err
	}
	speechClient, err := speech.New(a.cfg.Client.BaseURL, speech.WithLogger(a.logger))
	if err != nil {
		return session.Deps{}, err
	}

	a.logger.Debug("remote service", zap.String("base_url", a.cfg.Client.BaseURL))
	return session.Deps{
		Registry: registry,
		Chat:     chatClient,
		Speech:   speechClient,
		Logger:   a.logger,
	}, nil
}

// localPlayer returns the configured playback command, or a player that
// discards clips.
func (a *app) localPlayer() (conversation.Player, error) {
	if a.cfg.Client.AudioPlayer == "" {
		a.logger.Info("no audio player configured, voiced replies will not be played")
		return audio.NopPlayer{}, nil
	}
	return audio.NewCommandPlayer(a.cfg.Client.AudioPlayer, a.logger)
}
