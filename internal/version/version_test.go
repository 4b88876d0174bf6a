package version

import "testing"

func TestString(t *testing.T) {
	if Get() == "" {
		t.Fatal("Get() returned empty version")
	}

	old := Commit
	defer func() { Commit = old }()

	Commit = ""
	if String() != Get() {
		t.Errorf("String() = %q, want %q", String(), Get())
	}
	Commit = "abc123"
	if want := Get() + " (abc123)"; String() != want {
		t.Errorf("String() = %q, want %q", String(), want)
	}
}
