package hotkey

type FakeToggle struct {
	pressed chan struct{}
}

func NewFake() *FakeToggle {
	return &FakeToggle{pressed: make(chan struct{}, 1)}
}

func (f *FakeToggle) Register() error          { return nil }
func (f *FakeToggle) Unregister()              {}
func (f *FakeToggle) Pressed() <-chan struct{} { return f.pressed }

func (f *FakeToggle) SimPress() { f.pressed <- struct{}{} }
