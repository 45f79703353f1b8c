package dict

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatch_DropsRulesOnExternalEdit(t *testing.T) {
	e := newTestEngine(t)
	mustFix(t, e, "warm up")
	if e.Cache().Len() != 1 {
		t.Fatalf("cache len = %d, want 1", e.Cache().Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Watch(ctx) }()

	// The watch is registered asynchronously; keep editing until it is seen.
	deadline := time.Now().Add(5 * time.Second)
	for e.Cache().Len() != 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("rules not dropped after external edit")
		}
		if err := os.WriteFile(e.Store().Path(), []byte(`{"Acme": ["akme"]}`), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if got := mustFix(t, e, "akme rocks"); got != "Acme rocks" {
		t.Errorf("after edit got %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	e, err := NewEngine(t.TempDir() + "/missing/dir/terms.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Watch(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
