package session

import (
	"prompter/account"
	"prompter/usage"
)

// EventSink abstracts the display layer so the Bubble Tea TUI and the
// headless test harness receive the same session events.
type EventSink interface {
	RecordingStart()
	RecordingStop()
	RecordingTick(seconds float64)
	AudioLevel(level float64)
	NoVoiceWarning()
	VoiceCleared()
	StateChanged(s State)
	TurnsChanged(turns []Turn)
	BudgetChanged(b usage.Budget)
	UserChanged(u *account.User)
	Status(text string)
	Failure(err error)
}

// NopSink discards every event. Embed it to implement only the
// callbacks a sink cares about.
type NopSink struct{}

func (NopSink) RecordingStart()            {}
func (NopSink) RecordingStop()             {}
func (NopSink) RecordingTick(float64)      {}
func (NopSink) AudioLevel(float64)         {}
func (NopSink) NoVoiceWarning()            {}
func (NopSink) VoiceCleared()              {}
func (NopSink) StateChanged(State)         {}
func (NopSink) TurnsChanged([]Turn)        {}
func (NopSink) BudgetChanged(usage.Budget) {}
func (NopSink) UserChanged(*account.User)  {}
func (NopSink) Status(string)              {}
func (NopSink) Failure(error)              {}
