package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestIsContextOverflowText(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"google", "The input token count (1196265) exceeds the maximum number of tokens allowed (1048575)", true},
		{"openai", "This request's messages exceed the model's context window.", true},
		{"openrouter", "This endpoint's maximum context length is 8192 tokens. However, you requested 9000 tokens", true},
		{"groq", "Please reduce the length of the messages or completion", true},
		{"llama.cpp", "the request exceeds the available context size, try increasing it", true},
		{"generic", `{"error":{"code":"context_length_exceeded"}}`, true},
		{"rate limit", "429 Too Many Requests", false},
		{"server error", "internal server error", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsContextOverflowText(tc.body); got != tc.want {
				t.Errorf("IsContextOverflowText(%q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}

func TestHTTPError(t *testing.T) {
	err := HTTPError("google", 400, []byte(" The input token count (5) exceeds the maximum number of tokens allowed (4)\n"))
	if !errors.Is(err, ErrContextOverflow) {
		t.Errorf("overflow body not classified: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "google: HTTP 400: The input token count") {
		t.Errorf("message = %q", err.Error())
	}

	if err := HTTPError("openai", 413, nil); !errors.Is(err, ErrContextOverflow) {
		t.Errorf("empty 413 not classified: %v", err)
	}

	err = HTTPError("openai", 401, []byte("invalid api key"))
	if errors.Is(err, ErrContextOverflow) {
		t.Error("auth failure classified as overflow")
	}
	if err.Error() != "openai: HTTP 401: invalid api key" {
		t.Errorf("message = %q", err.Error())
	}
}
