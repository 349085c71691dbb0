package console

import (
	"bytes"
	"testing"
)

func TestPuts(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Puts("hello")
	if got, exp := buf.String(), "hello\n"; got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}

func TestPuti(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Puti(-42)
	if got, exp := buf.String(), "-42\n"; got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}

func TestLogf(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Logf("pmm", "out of frames")
	if got, exp := buf.String(), "[pmm] out of frames\n"; got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}

func TestSetOutputNilDefaultsToDiscard(t *testing.T) {
	SetOutput(nil)
	Puts("swallowed")
}
