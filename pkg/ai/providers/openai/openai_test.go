package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bitop-dev/shellagent/pkg/ai"
	"github.com/bitop-dev/shellagent/pkg/ai/providers/openai"
)

type wireReq struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string  `json:"role"`
		Content    *string `json:"content"`
		ToolCallID string  `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func server(t *testing.T, reply string, got *wireReq, auth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
}

func TestComplete_Text(t *testing.T) {
	var auth string
	srv := server(t, `{"choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`, nil, &auth)
	defer srv.Close()

	msg, err := openai.New(srv.URL, 0).Complete(context.Background(), "gpt-4o",
		ai.Context{Messages: []ai.Message{ai.NewUserMessage("hi")}}, ai.Options{APIKey: "sk-1"})
	if err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer sk-1" {
		t.Errorf("auth = %q", auth)
	}
	if msg.Text() != "hello" || msg.StopReason != ai.StopReasonStop || msg.Usage.TotalTokens != 2 {
		t.Errorf("msg = %+v", msg)
	}
}

func TestComplete_ToolCalls(t *testing.T) {
	reply := `{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
		{"id":"call_1","type":"function","function":{"name":"run_command","arguments":"{\"command\":\"echo hi\"}"}}
	]},"finish_reason":"tool_calls"}]}`
	srv := server(t, reply, nil, nil)
	defer srv.Close()

	msg, err := openai.New(srv.URL, 0).Complete(context.Background(), "m",
		ai.Context{Messages: []ai.Message{ai.NewUserMessage("hi")}}, ai.Options{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	calls := msg.ToolCalls()
	if len(calls) != 1 || calls[0].ID != "call_1" || calls[0].Arguments["command"] != "echo hi" {
		t.Fatalf("calls = %+v", calls)
	}
	if msg.StopReason != ai.StopReasonTool {
		t.Errorf("stop = %q", msg.StopReason)
	}
}

func TestComplete_BadToolArguments(t *testing.T) {
	reply := `{"choices":[{"message":{"tool_calls":[{"id":"c","type":"function","function":{"name":"run_command","arguments":"{not json"}}]}}]}`
	srv := server(t, reply, nil, nil)
	defer srv.Close()

	_, err := openai.New(srv.URL, 0).Complete(context.Background(), "m",
		ai.Context{Messages: []ai.Message{ai.NewUserMessage("hi")}}, ai.Options{APIKey: "k"})
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestComplete_RequestShape(t *testing.T) {
	var got wireReq
	srv := server(t, `{"choices":[{"message":{"content":"ok"}}]}`, &got, nil)
	defer srv.Close()

	llmCtx := ai.Context{
		SystemPrompt: "sys",
		Messages: []ai.Message{
			ai.NewUserMessage("list"),
			ai.AssistantMessage{Role: ai.RoleAssistant, Content: []ai.ContentBlock{
				ai.ToolCall{Type: "tool_call", ID: "c1", Name: "run_command", Arguments: map[string]any{"command": "ls"}},
			}},
			ai.ToolResultMessage{Role: ai.RoleToolResult, ToolCallID: "c1", ToolName: "run_command",
				Content: []ai.ContentBlock{ai.TextContent{Type: "text", Text: "out"}}},
			ai.AssistantMessage{Role: ai.RoleAssistant},
		},
		Tools: []ai.ToolDefinition{{Name: "run_command", Parameters: json.RawMessage(`{"type":"object"}`)}},
	}
	if _, err := openai.New(srv.URL, 0).Complete(context.Background(), "gpt-4o", llmCtx, ai.Options{APIKey: "k"}); err != nil {
		t.Fatal(err)
	}

	if got.Model != "gpt-4o" {
		t.Errorf("model = %q", got.Model)
	}
	var roles []string
	for _, m := range got.Messages {
		roles = append(roles, m.Role)
	}
	if strings.Join(roles, ",") != "system,user,assistant,tool" {
		t.Fatalf("roles = %v (empty assistant turns must be dropped)", roles)
	}
	asst := got.Messages[2]
	if asst.Content != nil {
		t.Errorf("assistant content = %q, want null", *asst.Content)
	}
	if len(asst.ToolCalls) != 1 || asst.ToolCalls[0].Function.Arguments != `{"command":"ls"}` {
		t.Errorf("tool calls = %+v", asst.ToolCalls)
	}
	if got.Messages[3].ToolCallID != "c1" || *got.Messages[3].Content != "out" {
		t.Errorf("tool message = %+v", got.Messages[3])
	}
	if len(got.Tools) != 1 || got.Tools[0].Type != "function" || got.Tools[0].Function.Name != "run_command" {
		t.Errorf("tools = %+v", got.Tools)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := server(t, `{"choices":[]}`, nil, nil)
	defer srv.Close()
	_, err := openai.New(srv.URL, 0).Complete(context.Background(), "m",
		ai.Context{Messages: []ai.Message{ai.NewUserMessage("hi")}}, ai.Options{APIKey: "k"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err := openai.New(srv.URL, 0).Complete(context.Background(), "m",
		ai.Context{Messages: []ai.Message{ai.NewUserMessage("hi")}}, ai.Options{APIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "HTTP 429") {
		t.Fatalf("err = %v", err)
	}
}
