// Package speech adapts the AI provider's audio endpoints to interview
// language settings: transcription hints and voice selection.
package speech

import (
	"context"
	"io"
	"strings"
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader, language string) (string, error)
}

// Synthesizer converts text to base64 audio.
type Synthesizer interface {
	Speak(ctx context.Context, text string, voice string) (string, error)
}

// Service is the speech layer used by the interview flow.
type Service struct {
	transcriber Transcriber
	synthesizer Synthesizer
}

// NewService creates a speech service.
func NewService(transcriber Transcriber, synthesizer Synthesizer) *Service {
	return &Service{
		transcriber: transcriber,
		synthesizer: synthesizer,
	}
}

// TranscriptionLanguage maps an interview language setting to the ISO hint
// given to the transcription model. Bilingual interviews autodetect.
func TranscriptionLanguage(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "english", "en":
		return "en"
	case "hindi", "hi":
		return "hi"
	default:
		return ""
	}
}

// SpeechLanguage maps an interview language setting to the spoken language
// for question delivery. Bilingual candidates hear Hindi.
func SpeechLanguage(language string) string {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "hindi", "hi", "bilingual", "hinglish", "english+hindi", "en+hi":
		return "hi"
	default:
		return "en"
	}
}

func voiceFor(language string) string {
	if SpeechLanguage(language) == "hi" {
		return "onyx"
	}
	return "alloy"
}

// Transcribe converts candidate audio to text with a language hint.
func (s *Service) Transcribe(ctx context.Context, filename string, audio io.Reader, language string) (string, error) {
	return s.transcriber.Transcribe(ctx, filename, audio, TranscriptionLanguage(language))
}

// Synthesize produces base64 audio for a question in the interview language.
func (s *Service) Synthesize(ctx context.Context, text, language string) (string, error) {
	return s.synthesizer.Speak(ctx, text, voiceFor(language))
}
