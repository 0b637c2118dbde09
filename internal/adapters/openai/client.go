package openai

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"bookcast/internal/core/ports"
)

// api is the slice of the OpenAI client surface this adapter uses. Narrowed
// to an interface so tests can substitute a fake.
type api interface {
	CreateChatCompletion(ctx context.Context, req oai.ChatCompletionRequest) (oai.ChatCompletionResponse, error)
	CreateSpeech(ctx context.Context, req oai.CreateSpeechRequest) (oai.RawResponse, error)
	CreateImage(ctx context.Context, req oai.ImageRequest) (oai.ImageResponse, error)
	CreateTranscription(ctx context.Context, req oai.AudioRequest) (oai.AudioResponse, error)
}

// Config tunes the generation adapters.
type Config struct {
	ChatModel      string
	Voice          oai.SpeechVoice
	MinScriptChars int
	MaxSpeechChars int
	RetryBase      time.Duration
}

func defaultConfig() Config {
	return Config{
		ChatModel:      oai.GPT4,
		Voice:          oai.VoiceAlloy,
		MinScriptChars: 200,
		// Service-side input limit for a single speech request.
		MaxSpeechChars: 4096,
		RetryBase:      2 * time.Second,
	}
}

// Client implements the ScriptGenerator, SpeechSynthesizer,
// ThumbnailGenerator and Transcriber ports on top of the OpenAI API.
type Client struct {
	api      api
	download ports.Downloader
	logger   *log.Logger
	cfg      Config
}

// NewClient creates a Client from the OPENAI_API_KEY environment variable.
// BOOKCAST_CHAT_MODEL and BOOKCAST_TTS_VOICE override the defaults.
func NewClient(download ports.Downloader, logger *log.Logger) (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	cfg := defaultConfig()
	if model := os.Getenv("BOOKCAST_CHAT_MODEL"); model != "" {
		cfg.ChatModel = model
	}
	if voice := os.Getenv("BOOKCAST_TTS_VOICE"); voice != "" {
		cfg.Voice = oai.SpeechVoice(voice)
	}

	return newClient(oai.NewClient(key), download, logger, cfg), nil
}

func newClient(a api, download ports.Downloader, logger *log.Logger, cfg Config) *Client {
	return &Client{
		api:      a,
		download: download,
		logger:   logger,
		cfg:      cfg,
	}
}
