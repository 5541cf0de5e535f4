package encoder

// Capture and clip audio parameters. Whisper-style transcription
// endpoints resample anything above 16 kHz anyway, so capturing mono
// 16-bit at 16 kHz keeps clips small without hurting accuracy.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// BytesPerSecond is the raw PCM data rate before compression.
const BytesPerSecond = SampleRate * Channels * BitsPerSample / 8
