package hotkey

// Toggle delivers presses of the global session hotkey. Each press
// flips the recording state; there is no separate key-up event.
type Toggle interface {
	Register() error
	Unregister()
	Pressed() <-chan struct{}
}
