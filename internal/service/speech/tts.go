// Package speech synthesises character lines for the reference speak endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/analysis/emotion"
	"github.com/zhouzirui/persona-chat/internal/config"
)

// DefaultEndpoint is the Volcengine unidirectional streaming TTS endpoint.
const DefaultEndpoint = "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"

// ErrNotConfigured is returned when no TTS credentials are set.
var ErrNotConfigured = errors.New("speech synthesis is not configured")

// Audio is synthesized speech.
type Audio struct {
	Data      []byte
	Format    string
	RequestID string
}

// ContentType returns the MIME type for the audio format.
func (a Audio) ContentType() string {
	switch a.Format {
	case "ogg_opus":
		return "audio/ogg"
	case "pcm":
		return "audio/L16"
	default:
		return "audio/mpeg"
	}
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// VolcengineTTS streams synthesis results over the Volcengine websocket API.
type VolcengineTTS struct {
	cfg      config.SpeechConfig
	endpoint string
	dialer   *websocket.Dialer
	logger   *zap.Logger
}

// TTSOption customises a VolcengineTTS.
type TTSOption func(*VolcengineTTS)

// WithEndpoint overrides the websocket endpoint.
func WithEndpoint(url string) TTSOption {
	return func(t *VolcengineTTS) { t.endpoint = url }
}

// WithTTSLogger sets the logger.
func WithTTSLogger(logger *zap.Logger) TTSOption {
	return func(t *VolcengineTTS) { t.logger = logger }
}

// NewVolcengineTTS validates credentials and returns a client.
func NewVolcengineTTS(cfg config.SpeechConfig, opts ...TTSOption) (*VolcengineTTS, error) {
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	t := &VolcengineTTS{
		cfg:      cfg,
		endpoint: DefaultEndpoint,
		dialer:   &websocket.Dialer{HandshakeTimeout: timeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("tts")
	return t, nil
}

type ttsRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string         `json:"speaker"`
		Text        string         `json:"text"`
		AudioParams ttsAudioParams `json:"audio_params"`
		Additions   string         `json:"additions,omitempty"`
		Language    string         `json:"language,omitempty"`
	} `json:"req_params"`
}

type ttsAudioParams struct {
	Format      string  `json:"format"`
	SampleRate  int     `json:"sample_rate"`
	SpeedRatio  float32 `json:"speed_ratio,omitempty"`
	VolumeRatio float32 `json:"volume_ratio,omitempty"`

	Emotion      string  `json:"emotion,omitempty"`
	EmotionScale float32 `json:"emotion_scale,omitempty"`
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
}

const audioFormat = "mp3"

// Synthesize voices text, walking speaker and resource candidates until the
// service accepts a combination.
func (t *VolcengineTTS) Synthesize(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("TTS text is empty")
	}

	timeout := time.Duration(t.cfg.Timeout) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	speakers := speakerCandidates(t.cfg.Voice)
	var lastMismatch error

	for speakerIdx, speaker := range speakers {
		for resourceIdx, resourceID := range resourceCandidates(speaker) {
			audio, err := t.synthesizeWith(ctx, text, speaker, resourceID)
			if err == nil {
				if resourceIdx > 0 || speakerIdx > 0 {
					t.logger.Info("fallback succeeded", zap.String("speaker", speaker), zap.String("resource", resourceID))
				}
				return audio, nil
			}
			if !isResourceMismatch(err) {
				return Audio{}, err
			}
			t.logger.Debug("resource mismatch", zap.String("speaker", speaker), zap.String("resource", resourceID), zap.Error(err))
			lastMismatch = err
		}
	}

	if lastMismatch != nil {
		return Audio{}, lastMismatch
	}
	return Audio{}, fmt.Errorf("TTS synthesis failed: no compatible resource for speakers %v", speakers)
}

func (t *VolcengineTTS) synthesizeWith(ctx context.Context, text, speaker, resourceID string) (Audio, error) {
	connectID := uuid.NewString()

	header := http.Header{}
	header.Set("X-Api-App-Key", t.cfg.AppID)
	header.Set("X-Api-Access-Key", t.cfg.AccessToken)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := t.dialer.DialContext(ctx, t.endpoint, header)
	if err != nil {
		return Audio{}, fmt.Errorf("failed to connect to TTS websocket: %w", err)
	}
	defer conn.Close()

	if resp != nil {
		if logID := resp.Header.Get("X-Tt-Logid"); logID != "" {
			t.logger.Debug("connected", zap.String("logid", logID))
		}
	}

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	payload, err := json.Marshal(t.buildRequest(text, speaker))
	if err != nil {
		return Audio{}, fmt.Errorf("failed to marshal TTS request: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, NewClientRequest(payload, NoCompression).Encode()); err != nil {
		return Audio{}, fmt.Errorf("failed to send TTS request: %w", err)
	}

	var (
		audio bytes.Buffer
		reqID string
	)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Audio{}, ctxErr
			}
			return Audio{}, fmt.Errorf("failed to read TTS response: %w", err)
		}

		frame, err := DecodeFrame(bytes.NewReader(data))
		if err != nil {
			return Audio{}, fmt.Errorf("failed to decode TTS frame: %w", err)
		}
		body, err := frame.Body()
		if err != nil {
			return Audio{}, fmt.Errorf("failed to decompress TTS frame: %w", err)
		}

		switch frame.Header.MessageType {
		case ErrorMessage:
			return Audio{}, fmt.Errorf("TTS error %d: %s", frame.ErrorCode, string(body))

		case AudioOnlyServerResponse:
			audio.Write(body)
			if frame.Last() {
				return t.finish(&audio, reqID, connectID)
			}

		case FullServerResponse:
			var msg ttsServerMessage
			if len(body) > 0 {
				if err := json.Unmarshal(body, &msg); err != nil {
					t.logger.Debug("unparsable server payload", zap.Error(err))
				} else {
					if msg.Code != 0 && msg.Code != 3000 {
						return Audio{}, fmt.Errorf("TTS API error %d: %s", msg.Code, msg.Message)
					}
					if msg.ReqID != "" {
						reqID = msg.ReqID
					}
					if msg.Data != "" {
						chunk, err := base64.StdEncoding.DecodeString(msg.Data)
						if err != nil {
							return Audio{}, fmt.Errorf("failed to decode base64 audio chunk: %w", err)
						}
						audio.Write(chunk)
					}
				}
			}

			finished := (frame.hasEvent() && frame.Event == EventTypeSessionFinished) || frame.Last() || msg.Sequence < 0
			if frame.hasEvent() && frame.Event == EventTypeSessionFailed {
				return Audio{}, fmt.Errorf("TTS session failed: %s", string(body))
			}
			if finished {
				return t.finish(&audio, reqID, connectID)
			}

		default:
			t.logger.Debug("unexpected frame type", zap.Uint8("type", uint8(frame.Header.MessageType)))
		}
	}
}

func (t *VolcengineTTS) finish(audio *bytes.Buffer, reqID, connectID string) (Audio, error) {
	if audio.Len() == 0 {
		return Audio{}, errors.New("TTS audio is empty")
	}
	if reqID == "" {
		reqID = connectID
	}
	return Audio{Data: audio.Bytes(), Format: audioFormat, RequestID: reqID}, nil
}

func (t *VolcengineTTS) buildRequest(text, speaker string) *ttsRequest {
	req := &ttsRequest{}
	req.User.UID = uuid.NewString()
	req.ReqParams.Speaker = speaker
	req.ReqParams.Text = text
	req.ReqParams.AudioParams = ttsAudioParams{Format: audioFormat, SampleRate: 24000}

	if s := t.cfg.Speed; s > 0 && s != 1.0 {
		req.ReqParams.AudioParams.SpeedRatio = s
	}
	if v := t.cfg.Volume; v > 0 && v != 1.0 {
		req.ReqParams.AudioParams.VolumeRatio = v
	}
	if t.cfg.Emotion {
		if d := emotion.Detect(text); d.Emotion != emotion.Neutral {
			req.ReqParams.AudioParams.Emotion = string(d.Emotion)
			req.ReqParams.AudioParams.EmotionScale = d.Scale
		}
	}
	req.ReqParams.Language = strings.TrimSpace(t.cfg.Language)
	req.ReqParams.Additions = `{"disable_markdown_filter":false}`
	return req
}
