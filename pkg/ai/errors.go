package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrContextOverflow marks a rejected request whose input exceeds the
// model's context window. A command that prints a lot of output is the
// usual cause.
var ErrContextOverflow = errors.New("input exceeds the model's context window")

// overflowPatterns matches the error bodies providers return when the input
// exceeds the context window.
var overflowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)input token count.*exceeds the maximum`), // Google Gemini
	regexp.MustCompile(`(?i)exceed.*context window`),                 // OpenAI
	regexp.MustCompile(`(?i)maximum context length is \d+ tokens`),   // OpenRouter
	regexp.MustCompile(`(?i)reduce the length of the messages`),      // Groq
	regexp.MustCompile(`(?i)exceeds the available context size`),     // llama.cpp
	regexp.MustCompile(`(?i)greater than the context length`),        // LM Studio
	regexp.MustCompile(`(?i)context[_ ]length[_ ]exceeded`),
	regexp.MustCompile(`(?i)too many tokens`),
	regexp.MustCompile(`(?i)token limit exceeded`),
}

// IsContextOverflowText reports whether an error body from a provider
// describes a context-window overflow.
func IsContextOverflowText(body string) bool {
	for _, re := range overflowPatterns {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

// HTTPError builds the error for a non-200 provider response. Bodies that
// describe a context overflow wrap ErrContextOverflow.
func HTTPError(provider string, status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	if IsContextOverflowText(text) || (status == 413 && text == "") {
		return fmt.Errorf("%s: HTTP %d: %s: %w", provider, status, text, ErrContextOverflow)
	}
	return fmt.Errorf("%s: HTTP %d: %s", provider, status, text)
}
