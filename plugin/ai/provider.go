package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config holds the AI provider configuration.
type Config struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	VisionModel     string
	TranscribeModel string
	SpeechModel     string
	MaxRetries      int
	Timeout         time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://api.openai.com/v1",
		APIKey:          "",
		ChatModel:       "gpt-4o-mini",
		VisionModel:     "gpt-4o-mini",
		TranscribeModel: "whisper-1",
		SpeechModel:     "tts-1",
		MaxRetries:      3,
		Timeout:         30 * time.Second,
	}
}

// Message represents a chat message.
type Message struct {
	Role    string
	Content string
}

// Provider provides chat, vision, transcription and speech capabilities.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new AI provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Apply defaults for unset values
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.ChatModel
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = "whisper-1"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "tts-1"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Chat performs a chat completion.
func (p *Provider) Chat(ctx context.Context, messages []Message) (string, error) {
	var result string
	err := p.doWithRetry(ctx, func() error {
		llmMessages := make([]openai.ChatCompletionMessage, len(messages))
		for i, msg := range messages {
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			}
		}

		req := openai.ChatCompletionRequest{
			Model:    p.config.ChatModel,
			Messages: llmMessages,
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}

	return result, nil
}

// ChatWithImage performs a chat completion with a base64 JPEG attached.
func (p *Provider) ChatWithImage(ctx context.Context, prompt, imageB64 string) (string, error) {
	var result string
	err := p.doWithRetry(ctx, func() error {
		req := openai.ChatCompletionRequest{
			Model: p.config.VisionModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    "data:image/jpeg;base64," + imageB64,
								Detail: openai.ImageURLDetailLow,
							},
						},
					},
				},
			},
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty vision response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to complete vision chat: %w", err)
	}

	return result, nil
}

// Transcribe converts candidate audio to text. The language hint is an ISO
// 639-1 code; empty means autodetect.
func (p *Provider) Transcribe(ctx context.Context, filename string, audio io.Reader, language string) (string, error) {
	var result string
	err := p.doWithRetry(ctx, func() error {
		req := openai.AudioRequest{
			Model:    p.config.TranscribeModel,
			FilePath: filename,
			Reader:   audio,
			Language: language,
		}
		resp, err := p.client.CreateTranscription(ctx, req)
		if err != nil {
			return err
		}
		result = resp.Text
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	return result, nil
}

// Speak synthesizes speech for the given text and returns base64 MP3.
func (p *Provider) Speak(ctx context.Context, text string, voice string) (string, error) {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	var result string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          openai.SpeechModel(p.config.SpeechModel),
			Input:          text,
			Voice:          openai.SpeechVoice(voice),
			ResponseFormat: openai.SpeechResponseFormatMp3,
		})
		if err != nil {
			return err
		}
		defer resp.Close()

		audio, err := io.ReadAll(resp)
		if err != nil {
			return err
		}
		result = base64.StdEncoding.EncodeToString(audio)
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to synthesize speech: %w", err)
	}

	return result, nil
}

// Validate validates the provider configuration.
func (p *Provider) Validate(ctx context.Context) error {
	if p.config.APIKey == "" {
		return fmt.Errorf("API key is required, set VOXHIRE_AI_API_KEY environment variable")
	}

	_, err := p.Chat(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: "ping"}})
	if err != nil {
		return fmt.Errorf("chat validation failed: %w", err)
	}

	slog.Info("AI provider validated successfully",
		"chat_model", p.config.ChatModel,
		"vision_model", p.config.VisionModel)

	return nil
}

// doWithRetry executes a function with exponential backoff retry.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("AI request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
