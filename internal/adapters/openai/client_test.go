package openai

import (
	"context"
	"io"
	"log"
	"time"

	oai "github.com/sashabaranov/go-openai"
)

// fakeAPI stands in for the OpenAI client in tests.
type fakeAPI struct {
	chat       func(ctx context.Context, req oai.ChatCompletionRequest) (oai.ChatCompletionResponse, error)
	speech     func(ctx context.Context, req oai.CreateSpeechRequest) (oai.RawResponse, error)
	image      func(ctx context.Context, req oai.ImageRequest) (oai.ImageResponse, error)
	transcribe func(ctx context.Context, req oai.AudioRequest) (oai.AudioResponse, error)
}

func (f *fakeAPI) CreateChatCompletion(ctx context.Context, req oai.ChatCompletionRequest) (oai.ChatCompletionResponse, error) {
	return f.chat(ctx, req)
}

func (f *fakeAPI) CreateSpeech(ctx context.Context, req oai.CreateSpeechRequest) (oai.RawResponse, error) {
	return f.speech(ctx, req)
}

func (f *fakeAPI) CreateImage(ctx context.Context, req oai.ImageRequest) (oai.ImageResponse, error) {
	return f.image(ctx, req)
}

func (f *fakeAPI) CreateTranscription(ctx context.Context, req oai.AudioRequest) (oai.AudioResponse, error) {
	return f.transcribe(ctx, req)
}

func testConfig() Config {
	return Config{
		ChatModel:      oai.GPT4,
		Voice:          oai.VoiceAlloy,
		MinScriptChars: 20,
		MaxSpeechChars: 40,
		RetryBase:      time.Millisecond,
	}
}

func testClient(a api) *Client {
	return newClient(a, nil, log.New(io.Discard, "", 0), testConfig())
}

func chatResponse(content string) oai.ChatCompletionResponse {
	return oai.ChatCompletionResponse{
		Choices: []oai.ChatCompletionChoice{
			{Message: oai.ChatCompletionMessage{Content: content}},
		},
	}
}
