package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeMessages serves scripted /v1/messages responses and records requests.
type fakeMessages struct {
	mu        sync.Mutex
	responses []string
	requests  []map[string]interface{}
}

func (f *fakeMessages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req map[string]interface{}
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		f.mu.Unlock()
		http.Error(w, `{"type":"error","error":{"type":"invalid_request_error","message":"no scripted response"}}`, http.StatusBadRequest)
		return
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, resp)
}

func (f *fakeMessages) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func textResponse(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":          "msg_text",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     []map[string]interface{}{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
	})
	return string(b)
}

func toolUseResponse(id, name string, input map[string]interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":   "msg_tool",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": []map[string]interface{}{
			{"type": "text", "text": "Let me check."},
			{"type": "tool_use", "id": id, "name": name, "input": input},
		},
		"stop_reason": "tool_use",
		"usage":       map[string]int{"input_tokens": 20, "output_tokens": 8},
	})
	return string(b)
}

// newFakeClient returns a client wired to a scripted fake server.
func newFakeClient(t *testing.T, responses ...string) (*Client, *fakeMessages) {
	t.Helper()

	fake := &fakeMessages{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/",
		MaxRetries: -1,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, fake
}
