package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

func TestObjectiveFromMessage(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
		want   string
		ok     bool
	}{
		{"objective", map[string]interface{}{"objective": " book a flight "}, "book a flight", true},
		{"blank", map[string]interface{}{"objective": "  "}, "", false},
		{"missing", map[string]interface{}{"body": "x"}, "", false},
		{"wrong type", map[string]interface{}{"objective": 7}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := objectiveFromMessage(redis.XMessage{ID: "1-0", Values: tt.values})
			if got != tt.want || ok != tt.ok {
				t.Errorf("objectiveFromMessage() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAnswerValues(t *testing.T) {
	now := time.Unix(1700000000, 0)

	done := answerValues("5-0", Result{
		Objective: "q",
		Outcome:   &orchestrator.Outcome{RunID: "r1", Answer: "a"},
	}, now)
	if done["status"] != "completed" || done["answer"] != "a" || done["objective_id"] != "5-0" || done["run_id"] != "r1" {
		t.Errorf("completed values = %v", done)
	}
	if done["time"] != int64(1700000000) {
		t.Errorf("time = %v", done["time"])
	}
	if _, ok := done["error"]; ok {
		t.Error("completed values should not carry error")
	}

	failed := answerValues("6-0", Result{Objective: "q", Err: errors.New("bad")}, now)
	if failed["status"] != "failed" || failed["error"] != "bad" {
		t.Errorf("failed values = %v", failed)
	}
}

func TestNewRedisSource_Defaults(t *testing.T) {
	r := NewRedisSource(nil, "", "", "")
	if r.stream != DefaultObjectiveStream || r.answerStream != DefaultAnswerStream || r.lastID != "$" {
		t.Errorf("defaults = %q %q %q", r.stream, r.answerStream, r.lastID)
	}
}

func TestConnectRedis_BadURL(t *testing.T) {
	if _, err := ConnectRedis("not-a-url://"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestStartAfter(t *testing.T) {
	if got := startAfter(nil); got != "0-0" {
		t.Errorf("empty stream start = %q, want 0-0", got)
	}
	newest := []redis.XMessage{{ID: "1700000000000-3"}}
	if got := startAfter(newest); got != "1700000000000-3" {
		t.Errorf("start = %q, want newest id", got)
	}
}

func TestRedisSource_CursorKeepsExplicitID(t *testing.T) {
	r := NewRedisSource(nil, "", "", "0")
	got, err := r.cursor(context.Background())
	if err != nil || got != "0" {
		t.Errorf("cursor = %q, %v; want 0 without a server round trip", got, err)
	}
}

func TestRedisSource_CursorUnreachable(t *testing.T) {
	rdb, err := ConnectRedis("redis://127.0.0.1:1/0")
	if err != nil {
		t.Fatalf("ConnectRedis failed: %v", err)
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r := NewRedisSource(rdb, "", "", "")
	if _, err := r.cursor(ctx); err == nil {
		t.Error("expected error resolving $ without a server")
	}
	if r.lastID != "$" {
		t.Errorf("lastID = %q, want $ kept for the next attempt", r.lastID)
	}
}
