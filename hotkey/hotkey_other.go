//go:build !linux

package hotkey

import (
	"golang.design/x/hotkey"
)

type xToggle struct {
	hk      *hotkey.Hotkey
	pressed chan struct{}
}

func New() Toggle {
	return &xToggle{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		pressed: make(chan struct{}, 1),
	}
}

func (h *xToggle) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			<-h.hk.Keydown()
			select {
			case h.pressed <- struct{}{}:
			default:
			}
		}
	}()
	return nil
}

func (h *xToggle) Unregister() {
	h.hk.Unregister()
}

func (h *xToggle) Pressed() <-chan struct{} {
	return h.pressed
}

func Diagnose() (string, error) {
	return "hotkey support available (Ctrl+Shift+Space)", nil
}
