package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// ClipWriter accumulates raw little-endian PCM16 audio and compresses
// it to FLAC as it arrives. Chunks are encoded in BlockSize sample
// blocks so memory stays bounded while a recording is in progress.
type ClipWriter struct {
	buf     bytes.Buffer
	enc     *flac.Encoder
	pending []int16
	tail    []byte // odd trailing byte carried to the next Write
	frames  uint64
	closed  bool
}

func NewClipWriter() (*ClipWriter, error) {
	w := &ClipWriter{}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(&w.buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	w.enc = enc
	return w, nil
}

// Write appends raw PCM bytes to the clip. Full blocks are encoded
// immediately; a partial block is held until more data arrives or the
// clip is finalized.
func (w *ClipWriter) Write(pcm []byte) error {
	if w.closed {
		return fmt.Errorf("clip already finalized")
	}
	data := pcm
	if len(w.tail) > 0 {
		data = append(w.tail, pcm...)
		w.tail = nil
	}
	for i := 0; i+1 < len(data); i += 2 {
		w.pending = append(w.pending, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	if len(data)%2 == 1 {
		w.tail = []byte{data[len(data)-1]}
	}
	for len(w.pending) >= BlockSize {
		if err := w.encodeBlock(w.pending[:BlockSize]); err != nil {
			return err
		}
		w.pending = w.pending[BlockSize:]
	}
	return nil
}

func (w *ClipWriter) encodeBlock(block []int16) error {
	samples := make([]int32, len(block))
	for i, s := range block {
		samples[i] = int32(s)
	}
	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  len(block),
		}},
	}
	if err := w.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	w.frames += uint64(len(block))
	return nil
}

// Finalize flushes any partial block and closes the FLAC stream,
// returning the complete encoded clip.
func (w *ClipWriter) Finalize() ([]byte, error) {
	if w.closed {
		return w.buf.Bytes(), nil
	}
	w.closed = true
	if len(w.pending) > 0 {
		if err := w.encodeBlock(w.pending); err != nil {
			return nil, err
		}
		w.pending = nil
	}
	if err := w.enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac stream: %w", err)
	}
	return w.buf.Bytes(), nil
}

// Frames reports the number of PCM frames encoded so far.
func (w *ClipWriter) Frames() uint64 { return w.frames }

// Duration reports the audio length in seconds of the encoded frames.
func (w *ClipWriter) Duration() float64 {
	return float64(w.frames) / float64(SampleRate)
}
