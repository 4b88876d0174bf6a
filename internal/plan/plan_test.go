package plan

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ShayCichocki/goalie/pkg/models"
)

func TestParse_NumberedList(t *testing.T) {
	got, err := Parse("1. Buy milk\n2. Walk dog")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []models.Task{
		models.NewTask("1", "Buy milk"),
		models.NewTask("2", "Walk dog"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParse_Idempotent(t *testing.T) {
	input := "1. Buy milk\n2. Walk dog"

	first, err := Parse(input)
	if err != nil {
		t.Fatalf("first Parse failed: %v", err)
	}
	second, err := Parse(input)
	if err != nil {
		t.Fatalf("second Parse failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-parsing yielded different tasks: %+v vs %+v", first, second)
	}
}

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string // "id:description"
	}{
		{
			name:  "prose around the list",
			input: "Here is the plan:\n\n1. Look up the forecast\n2. Summarize it\n\nGood luck!",
			want:  []string{"1:Look up the forecast", "2:Summarize it"},
		},
		{
			name:  "array style output",
			input: "[\n\"1. Look up the forecast\",\n\"2. Summarize it\"\n]",
			want:  []string{"1:Look up the forecast", "2:Summarize it"},
		},
		{
			name:  "parenthesis ordinals and indentation",
			input: "  1) Fetch data\n  2) Compute average",
			want:  []string{"1:Fetch data", "2:Compute average"},
		},
		{
			name:  "periods inside description are kept",
			input: "1. Visit example.com. Read the page",
			want:  []string{"1:Visit example.com. Read the page"},
		},
		{
			name:  "quotes inside descriptions are kept",
			input: "1. Search for \"Go generics\"\n2. Print 'done'",
			want:  []string{"1:Search for \"Go generics\"", "2:Print 'done'"},
		},
		{
			name:  "quoted description unwrapped",
			input: "1. \"Buy milk\"\n2. `Walk dog`",
			want:  []string{"1:Buy milk", "2:Walk dog"},
		},
		{
			name:  "single line array items",
			input: "[\"1. Fetch \"rates\"\",\n\"2. Compare them\"]",
			want:  []string{"1:Fetch \"rates\"", "2:Compare them"},
		},
		{
			name:  "several quoted phrases kept",
			input: "1. \"Go\" vs \"Rust\"",
			want:  []string{"1:\"Go\" vs \"Rust\""},
		},
		{
			name:  "mismatched quotes left alone",
			input: "1. Say 'hi\"",
			want:  []string{"1:Say 'hi\""},
		},
		{
			name:  "brackets inside description kept",
			input: "1. Read [the docs]",
			want:  []string{"1:Read [the docs]"},
		},
		{
			name:  "leading zeros normalized",
			input: "01. First\n02. Second",
			want:  []string{"1:First", "2:Second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			var got []string
			for _, task := range tasks {
				got = append(got, task.ID+":"+task.Description)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrNoTasks},
		{"prose only", "I cannot make a plan for that.", ErrNoTasks},
		{"duplicate ordinal", "1. First\n1. Again", ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderContext(t *testing.T) {
	tasks := []models.Task{
		models.NewTask("1", "Buy milk").WithResult("bought"),
		models.NewTask("2", "Walk dog").WithResult("walked"),
	}

	want := "1. Buy milk, result: bought\n2. Walk dog, result: walked"
	if got := RenderContext(tasks); got != want {
		t.Errorf("RenderContext() = %q, want %q", got, want)
	}

	if got := RenderContext(nil); got != "" {
		t.Errorf("RenderContext(nil) = %q, want empty", got)
	}
}
