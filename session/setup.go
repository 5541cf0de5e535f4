package session

import "fmt"

type InterviewType string

const (
	Technical  InterviewType = "technical"
	Behavioral InterviewType = "behavioral"
	General    InterviewType = "general"
)

// Setup carries the per-session interview configuration chosen
// before any audio is captured.
type Setup struct {
	InterviewType   InterviewType
	Language        string // ISO 639-1 code, e.g. "en"
	PersonaName     string // how the assistant refers to the user
	PersonalContext string // optional background pasted by the user
}

func (s *Setup) ApplyDefaults() {
	if s.InterviewType == "" {
		s.InterviewType = General
	}
	if s.Language == "" {
		s.Language = "en"
	}
}

func (s Setup) Validate() error {
	switch s.InterviewType {
	case Technical, Behavioral, General:
	default:
		return fmt.Errorf("unknown interview type %q (use technical, behavioral, or general)", s.InterviewType)
	}
	if len(s.Language) != 2 {
		return fmt.Errorf("invalid language code %q (use a two-letter code like en, es)", s.Language)
	}
	return nil
}
