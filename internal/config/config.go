package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/persona-chat/internal/client"
)

// Config gathers every setting the personachat commands read from the environment.
type Config struct {
	Server   ServerConfig
	Client   ClientConfig
	Upstream UpstreamConfig
	Log      LogConfig
}

// LoadDotEnv merges .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig("PORT", "8080")
	if err != nil {
		return nil, err
	}

	cl, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Client: cl, Upstream: upstream, Log: logCfg}, nil
}

// ServerConfig is an HTTP listen address.
type ServerConfig struct {
	Addr string
}

func loadServerConfig(key, defaultPort string) (ServerConfig, error) {
	port := getEnvOrDefault(key, defaultPort)

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted as-is.
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid %s value: %q", key, port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ClientConfig describes how the chat client reaches the remote persona service.
type ClientConfig struct {
	BaseURL        string
	CharactersFile string
	AudioPlayer    string
}

func loadClientConfig() (ClientConfig, error) {
	base := strings.TrimRight(getEnvOrDefault("PERSONA_API_BASE_URL", client.DefaultBaseURL), "/")
	if err := validateBaseURL("PERSONA_API_BASE_URL", base); err != nil {
		return ClientConfig{}, err
	}
	return ClientConfig{
		BaseURL:        base,
		CharactersFile: getEnvOrDefault("PERSONA_CHARACTERS_FILE", ""),
		AudioPlayer:    getEnvOrDefault("PERSONA_AUDIO_PLAYER", ""),
	}, nil
}

// UpstreamConfig configures the reference persona service.
type UpstreamConfig struct {
	Server     ServerConfig
	PublicURL  string
	AudioCache int
	AI         AIConfig
	Speech     SpeechConfig
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	server, err := loadServerConfig("UPSTREAM_PORT", "8000")
	if err != nil {
		return UpstreamConfig{}, err
	}

	public := strings.TrimRight(getEnvOrDefault("UPSTREAM_PUBLIC_URL", "http://localhost:8000"), "/")
	if err := validateBaseURL("UPSTREAM_PUBLIC_URL", public); err != nil {
		return UpstreamConfig{}, err
	}

	cacheSize := 64
	if override, err := parseOptionalIntEnv("UPSTREAM_AUDIO_CACHE"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil {
		if *override < 1 {
			cacheSize = 1
		} else {
			cacheSize = *override
		}
	}

	ai, err := loadAIConfig()
	if err != nil {
		return UpstreamConfig{}, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return UpstreamConfig{}, err
	}

	return UpstreamConfig{
		Server:     server,
		PublicURL:  public,
		AudioCache: cacheSize,
		AI:         ai,
		Speech:     speech,
	}, nil
}

// AIConfig holds the Ark model settings used by the reference service.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether a model and credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, errors.New("ark model is not configured: set Model plus ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SpeechConfig holds the Volcengine TTS settings used by the reference service.
type SpeechConfig struct {
	AppID       string
	AccessToken string
	Voice       string
	Speed       float32
	Volume      float32
	Language    string
	Timeout     int
	// Emotion lets the TTS request carry a detected speaking emotion.
	Emotion bool
}

// Enabled reports whether TTS credentials are present.
func (c SpeechConfig) Enabled() bool {
	return c.AppID != "" && c.AccessToken != ""
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil && *timeout > 0 {
		timeoutSeconds = *timeout
	}

	speed, err := parseOptionalFloat32Env("SPEECH_TTS_SPEED")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsSpeed := float32(1.0)
	if speed != nil {
		ttsSpeed = *speed
	}

	volume, err := parseOptionalFloat32Env("SPEECH_TTS_VOLUME")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsVolume := float32(1.0)
	if volume != nil {
		ttsVolume = *volume
	}

	emotion, err := parseOptionalBoolEnv("SPEECH_TTS_EMOTION")
	if err != nil {
		return SpeechConfig{}, err
	}

	accessToken := strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN"))
	if accessToken == "" {
		accessToken = strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	}

	return SpeechConfig{
		AppID:       strings.TrimSpace(os.Getenv("SPEECH_APP_ID")),
		AccessToken: accessToken,
		Voice:       getEnvOrDefault("SPEECH_TTS_VOICE", ""),
		Speed:       ttsSpeed,
		Volume:      ttsVolume,
		Language:    getEnvOrDefault("SPEECH_TTS_LANGUAGE", "en-US"),
		Timeout:     timeoutSeconds,
		Emotion:     emotion,
	}, nil
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() (LogConfig, error) {
	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console"))
	if format != "console" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: format,
	}, nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s value %q: scheme must be http or https", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s value %q: missing host", key, raw)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}

func parseOptionalBoolEnv(key string) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return parsed, nil
}
