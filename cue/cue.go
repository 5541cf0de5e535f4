// Package cue plays short audible cues so the user knows the
// recording state without looking at the terminal.
package cue

import "math"

var disabled bool

// Disable silences all cues, for headless runs.
func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Recording started: short high tick
	startFreq   = 1100
	startVolume = 0.5
	startDecay  = 55

	// Recording stopped: slightly lower, a touch longer
	stopFreq   = 820
	stopVolume = 0.5
	stopDecay  = 40

	// Warning (silence, budget cutoff): low double tone
	warnFreq   = 320
	warnVolume = 0.6
	warnDecay  = 30
)

// tone synthesizes a mono decaying sine.
func tone(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

// doubleTone is two tones separated by a short gap.
func doubleTone(freq, toneDur, gapDur, volume, decay float64) []int16 {
	single := tone(freq, toneDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, len(single)*2+len(gap))
	out = append(out, single...)
	out = append(out, gap...)
	out = append(out, single...)
	return out
}

func monoToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}
