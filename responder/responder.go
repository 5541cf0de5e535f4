// Package responder generates interview answers: a streaming path
// decoding incremental data-prefixed frames, and a one-shot fallback
// for when streaming fails.
package responder

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Exchange is one prior question/answer pair carried into the prompt
// context window.
type Exchange struct {
	Question string
	Answer   string
}

// Prompt is everything one generation request needs. History order is
// significant: it defines the context window sent with every request.
type Prompt struct {
	PersonaName     string
	Language        string // language code, e.g. "en"
	PersonalContext string
	History         []Exchange
	Question        string
}

// Streamer produces answers. Stream yields text deltas in arrival
// order through onDelta; Generate returns the whole answer at once.
type Streamer interface {
	Name() string
	Stream(ctx context.Context, p Prompt, onDelta func(string)) error
	Generate(ctx context.Context, p Prompt) (string, error)
}

var languageNames = map[string]string{
	"en": "English",
	"it": "Italian",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
}

// LanguageName resolves a language code to the name used in prompts.
// Unknown codes fall back to English.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

const defaultPersona = "the candidate"

func systemPrompt(p Prompt) string {
	name := p.PersonaName
	if name == "" {
		name = defaultPersona
	}
	language := LanguageName(p.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a real person in a job interview. Your name is %s. You MUST respond ONLY in %s. Answer the interviewer's question naturally and conversationally, like a human would.\n\n", name, language)
	fmt.Fprintf(&b, "CRITICAL: Respond ONLY in %s. If the interviewer asks in another language, still respond in %s.\n\n", language, language)
	if ctx := strings.TrimSpace(p.PersonalContext); ctx != "" {
		fmt.Fprintf(&b, "Some context about me: %s\n\n", ctx)
	}
	b.WriteString(`Instructions:
- Answer like a real human being, not an AI
- Use natural speech patterns, contractions, and casual language
- Be conversational and engaging
- If it's a technical question, explain it in simple terms
- If it's about math, science, or any other topic, answer it naturally
- If it's off-topic or personal, still answer it like a normal person would
- Use "I" statements and personal experiences when relevant
- Keep it conversational (2-4 sentences)
- Don't sound robotic or formal
- Show personality and confidence
- Answer ANY question the interviewer asks, no matter the topic`)
	return b.String()
}

// BuildMessages assembles the wire-format conversation: system prompt,
// prior turns as alternating user/assistant pairs, then the new
// question. Unanswered prior turns contribute only their question.
func BuildMessages(p Prompt) []Message {
	messages := []Message{{Role: "system", Content: systemPrompt(p)}}
	for _, e := range p.History {
		messages = append(messages, Message{Role: "user", Content: e.Question})
		if e.Answer != "" {
			messages = append(messages, Message{Role: "assistant", Content: e.Answer})
		}
	}
	return append(messages, Message{Role: "user", Content: p.Question})
}
