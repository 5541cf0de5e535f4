package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildMessages(t *testing.T) {
	p := Prompt{
		PersonaName:     "Ada",
		Language:        "es",
		PersonalContext: "10 years of backend work",
		History: []Exchange{
			{Question: "Tell me about yourself", Answer: "I build services."},
			{Question: "Unanswered one", Answer: ""},
		},
		Question: "Why this company?",
	}
	msgs := BuildMessages(p)

	if msgs[0].Role != "system" {
		t.Fatalf("first message role = %q", msgs[0].Role)
	}
	sys := msgs[0].Content
	for _, want := range []string{"Ada", "Spanish", "10 years of backend work"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}

	// history alternates user/assistant; unanswered turns contribute
	// only the question
	want := []struct{ role, content string }{
		{"user", "Tell me about yourself"},
		{"assistant", "I build services."},
		{"user", "Unanswered one"},
		{"user", "Why this company?"},
	}
	rest := msgs[1:]
	if len(rest) != len(want) {
		t.Fatalf("got %d non-system messages, want %d", len(rest), len(want))
	}
	for i, w := range want {
		if rest[i].Role != w.role || rest[i].Content != w.content {
			t.Errorf("message %d = {%s %q}, want {%s %q}", i, rest[i].Role, rest[i].Content, w.role, w.content)
		}
	}
}

func TestBuildMessagesDefaults(t *testing.T) {
	msgs := BuildMessages(Prompt{Question: "hi", Language: "xx"})
	sys := msgs[0].Content
	if !strings.Contains(sys, "the candidate") {
		t.Error("empty persona should fall back to \"the candidate\"")
	}
	if !strings.Contains(sys, "English") {
		t.Error("unknown language code should fall back to English")
	}
	if strings.Contains(sys, "Some context about me") {
		t.Error("empty personal context should be omitted entirely")
	}
}

func TestDecodeFrame(t *testing.T) {
	for _, tt := range []struct {
		name  string
		line  string
		delta string
		done  bool
	}{
		{"delta frame", `data: {"choices":[{"delta":{"content":"Hi "}}]}`, "Hi ", false},
		{"sentinel", "data: [DONE]", "", true},
		{"malformed json", "data: {not json", "", false},
		{"empty line", "", "", false},
		{"non-data line", ": keepalive", "", false},
		{"empty choices", `data: {"choices":[]}`, "", false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			delta, done := decodeFrame(tt.line)
			if delta != tt.delta || done != tt.done {
				t.Errorf("decodeFrame(%q) = (%q, %v), want (%q, %v)", tt.line, delta, done, tt.delta, tt.done)
			}
		})
	}
}

func streamFrame(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": content}}},
	})
	return "data: " + string(b) + "\n"
}

func TestChatStreamReconstruction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/chat-stream" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if !req.Stream {
			t.Error("stream flag not set")
		}
		fmt.Fprint(w, streamFrame("I "))
		fmt.Fprint(w, streamFrame("think "))
		fmt.Fprint(w, "data: {malformed\n") // must be skipped, not fatal
		fmt.Fprint(w, streamFrame("my biggest..."))
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	var got strings.Builder
	c := NewChat(srv.URL, "test-token")
	err := c.Stream(context.Background(), Prompt{Question: "weakness?"}, func(d string) {
		got.WriteString(d)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got.String() != "I think my biggest..." {
		t.Errorf("reconstructed %q", got.String())
	}
}

func TestChatStreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewChat(srv.URL, "test-token")
	err := c.Stream(context.Background(), Prompt{Question: "q"}, func(string) {})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestChatGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Stream {
			t.Error("fallback must not request streaming")
		}
		if req.MaxTokens != chatMaxTokens {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"  A complete answer.  "}}]}`))
	}))
	defer srv.Close()

	c := NewChat(srv.URL, "test-token")
	answer, err := c.Generate(context.Background(), Prompt{Question: "q"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "A complete answer." {
		t.Errorf("answer = %q", answer)
	}
}

func TestChatGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewChat(srv.URL, "test-token")
	if _, err := c.Generate(context.Background(), Prompt{Question: "q"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
