package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Translator produces transcript translations for bilingual interviews.
// Callers treat failures as best-effort and keep the original text.
type Translator struct {
	provider ChatProvider
}

// NewTranslator creates a translator.
func NewTranslator(provider ChatProvider) *Translator {
	return &Translator{provider: provider}
}

// Translate renders text into the target language. The response is the
// translation alone.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	response, err := t.provider.Chat(ctx, []Message{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("Translate the user's text to %s. Respond with the translation only, no commentary.",
				targetLanguage),
		},
		{Role: openai.ChatMessageRoleUser, Content: text},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}
