package session

import (
	"fmt"
	"sync"

	"prompter/audio"
	"prompter/encoder"
	"prompter/log"
)

// Capture owns the lifetime of the microphone device. Acquire opens
// it at most once; Release is idempotent so shutdown paths can call
// it unconditionally.
type Capture struct {
	ctx    audio.Context
	device *audio.DeviceInfo
	config audio.CaptureConfig

	mu     sync.Mutex
	active audio.CaptureDevice
}

func NewCaptureManager(ctx audio.Context, device *audio.DeviceInfo) *Capture {
	return &Capture{
		ctx:    ctx,
		device: device,
		config: audio.CaptureConfig{
			SampleRate: encoder.SampleRate,
			Channels:   encoder.Channels,
		},
	}
}

func (c *Capture) Acquire() (audio.CaptureDevice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return c.active, nil
	}
	dev, err := c.ctx.NewCapture(c.device, c.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDenied, err)
	}
	// A device can open successfully yet deliver no audio channels,
	// e.g. a monitor source with no input. Refuse it up front instead
	// of recording silence.
	if dev.Channels() == 0 {
		dev.Close()
		return nil, ErrNoAudioTrack
	}
	c.active = dev
	if audio.IsBluetooth(dev.DeviceName()) {
		log.Warnf("bluetooth mic in use: %s (expect degraded quality)", dev.DeviceName())
	}
	return dev, nil
}

func (c *Capture) Active() audio.CaptureDevice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Capture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	c.active.Stop()
	c.active.Close()
	c.active = nil
}
