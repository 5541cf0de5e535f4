package session

import "errors"

var (
	// ErrNoCapture means no microphone has been acquired yet.
	ErrNoCapture = errors.New("no active capture: start the microphone first")

	// ErrNoAudioTrack means the device opened but delivers zero channels.
	ErrNoAudioTrack = errors.New("capture has no audio track")

	// ErrCaptureDenied wraps device acquisition failures.
	ErrCaptureDenied = errors.New("capture denied")

	// ErrBusy means a previous turn is still being processed.
	ErrBusy = errors.New("previous turn still processing")

	// ErrBudgetExhausted means no interview minutes remain.
	ErrBudgetExhausted = errors.New("usage budget exhausted: no minutes left")

	// ErrRecordingTooShort means stop was requested before the minimum
	// recording duration. The recording keeps running.
	ErrRecordingTooShort = errors.New("recording too short: keep talking for a couple of seconds")
)
