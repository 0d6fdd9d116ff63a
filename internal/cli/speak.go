package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/client/speech"
)

func newSpeakCommand(a *app) *cobra.Command {
	var (
		output string
		play   bool
	)
	cmd := &cobra.Command{
		Use:   "speak <text>...",
		Short: "Voice a line through the speech service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("nothing to say")
			}

			client, err := speech.New(a.cfg.Client.BaseURL, speech.WithLogger(a.logger))
			if err != nil {
				return err
			}
			ref, err := client.Synthesize(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref.URL)

			if output != "" {
				n, err := download(cmd.Context(), ref.URL, output)
				if err != nil {
					return err
				}
				a.logger.Info("saved clip", zap.String("path", output), zap.Int64("bytes", n))
			}
			if play {
				player, err := a.localPlayer()
				if err != nil {
					return err
				}
				return player.Play(cmd.Context(), ref)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "also save the clip to this file")
	cmd.Flags().BoolVar(&play, "play", false, "play the clip with PERSONA_AUDIO_PLAYER")
	return cmd
}

func download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch clip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to fetch clip: status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
