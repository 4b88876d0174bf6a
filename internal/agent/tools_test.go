package agent

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"(3 + 4) * 2", 14},
		{"2 ^ 3", 8},
		{"2 * 3 ^ 2", 18},
		{"2 ^ 3 ^ 2", 512},
		{"-2 ^ 2", -4},
		{"2 ^ -1", 0.5},
		{"(1 + 1) ^ (1 + 2)", 8},
		{"sqrt(16) + abs(-2)", 6},
		{"sqrt(9) ^ 2", 9},
		{"pow(2, 10)", 1024},
		{"max(3, 7) - min(3, 7)", 4},
		{"10 % 4", 2},
		{"7 / 2", 3.5},
		{"1_000 * 3", 3000},
		{"round(pi * 100) / 100", 3.14},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			if err != nil {
				t.Fatalf("Evaluate(%q) failed: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	for _, expr := range []string{
		"",
		"1 / 0",
		"2 +",
		"^ 2",
		"foo(1)",
		"x + 1",
		`"a" + 1`,
		"sqrt(1, 2)",
		"sqrt(-1)",
		"1 << 2",
	} {
		if _, err := Evaluate(expr); err == nil {
			t.Errorf("Evaluate(%q) should fail", expr)
		}
	}
}

func TestCalculator_Run(t *testing.T) {
	out, err := Calculator{}.Run(context.Background(), json.RawMessage(`{"expression":"6 * 7"}`))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "42" {
		t.Errorf("Run = %q, want 42", out)
	}
}

func TestFetchURL_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!doctype html><html><head><style>body{color:red}</style>
<script>alert("x")</script></head><body><h1>Weather</h1><p>Sunny &amp; 24&deg;C</p>
<ul><li>Wind: low</li></ul></body></html>`))
	}))
	defer srv.Close()

	tool := NewFetchURL(time.Second, 0)
	out, err := tool.Run(context.Background(), json.RawMessage(`{"url":"`+srv.URL+`"}`))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{"Weather", "Sunny & 24°C", "Wind: low"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"<", "alert", "color:red"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output contains %q:\n%s", unwanted, out)
		}
	}
}

func TestFetchURL_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tool := NewFetchURL(time.Second, 0)
	for _, input := range []string{
		`{"url":"` + srv.URL + `/missing"}`,
		`{"url":"ftp://example.com"}`,
		`{"url":"not a url"}`,
		`{}`,
	} {
		if _, err := tool.Run(context.Background(), json.RawMessage(input)); err == nil {
			t.Errorf("Run(%s) should fail", input)
		}
	}
}

func TestFetchURL_LimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	tool := NewFetchURL(time.Second, 100)
	out, err := tool.Run(context.Background(), json.RawMessage(`{"url":"`+srv.URL+`"}`))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 100 {
		t.Errorf("len = %d, want 100", len(out))
	}
}

func TestAskUser(t *testing.T) {
	var asked string
	tool := NewAskUser(PrompterFunc(func(_ context.Context, q string) (string, error) {
		asked = q
		return "Berlin", nil
	}))

	out, err := tool.Run(context.Background(), json.RawMessage(`{"question":" Where do you live? "}`))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if asked != "Where do you live?" || out != "Berlin" {
		t.Errorf("asked %q, got %q", asked, out)
	}

	if _, err := tool.Run(context.Background(), json.RawMessage(`{"question":""}`)); err == nil {
		t.Error("empty question should fail")
	}

	failing := NewAskUser(PrompterFunc(func(context.Context, string) (string, error) {
		return "", errors.New("aborted")
	}))
	if _, err := failing.Run(context.Background(), json.RawMessage(`{"question":"?"}`)); err == nil {
		t.Error("prompter error should propagate")
	}
}
