package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"prompter/trace"
)

const whisperModel = "whisper-1"

// Whisper posts clips to the backend's whisper-compatible
// transcription endpoint.
type Whisper struct {
	client  *trace.Client
	apiURL  string
	token   string
	Metrics *trace.Metrics // timings of the most recent call
}

func NewWhisper(baseURL, token string) *Whisper {
	apiURL := baseURL + "/ai/transcribe"
	return &Whisper{
		client: trace.NewClient(apiURL),
		apiURL: apiURL,
		token:  token,
	}
}

func (w *Whisper) Name() string { return "whisper" }

// Warm pre-establishes the connection so the first clip of a session
// does not pay the TLS handshake.
func (w *Whisper) Warm() {
	go w.client.Warm()
}

func (w *Whisper) Transcribe(ctx context.Context, clip []byte, format, language string) (string, error) {
	if len(clip) < MinClipBytes {
		return "", ErrClipTooShort
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(clip); err != nil {
		return "", err
	}
	writer.WriteField("model", whisperModel)
	if language != "" {
		writer.WriteField("language", language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("transcription response parse error: %w", err)
	}

	w.Metrics = resp.Metrics
	return parsed.Text, nil
}
