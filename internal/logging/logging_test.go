package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: "json", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.WithField("key", "llg_damping").Debug("checked")
	if !strings.Contains(buf.String(), `"key":"llg_damping"`) {
		t.Errorf("json output missing field: %s", buf.String())
	}

	buf.Reset()
	log, err = New(Options{Level: "warn", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %s", buf.String())
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected level error")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected format error")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("OrDiscard replaced a real logger")
	}
}
