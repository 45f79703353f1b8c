package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpen_CreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	changes, err := l.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List on empty db: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected 0 changes, got %d", len(changes))
	}
}

func TestRecordAndList(t *testing.T) {
	l := tempLog(t)
	ctx := context.Background()

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Record(ctx, Change{Canonical: "FooBar", Variants: []string{"foobar", "Foo Bar"}, Transport: "mcp_stdio", CreatedAt: at}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(ctx, Change{Canonical: "GitHub", Transport: "http"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	changes, err := l.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	// Newest first.
	if changes[0].Canonical != "GitHub" || changes[1].Canonical != "FooBar" {
		t.Errorf("order = %s, %s", changes[0].Canonical, changes[1].Canonical)
	}
	if changes[0].Variants == nil || len(changes[0].Variants) != 0 {
		t.Errorf("nil variants should round-trip as empty list, got %#v", changes[0].Variants)
	}
	if changes[0].CreatedAt.IsZero() {
		t.Error("zero CreatedAt should be stamped")
	}

	old := changes[1]
	if len(old.Variants) != 2 || old.Variants[0] != "foobar" || old.Variants[1] != "Foo Bar" {
		t.Errorf("variants = %v", old.Variants)
	}
	if old.Transport != "mcp_stdio" {
		t.Errorf("transport = %q", old.Transport)
	}
	if !old.CreatedAt.Equal(at) {
		t.Errorf("created_at = %v, want %v", old.CreatedAt, at)
	}
}

func TestList_Limit(t *testing.T) {
	l := tempLog(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C", "D"} {
		if err := l.Record(ctx, Change{Canonical: name}); err != nil {
			t.Fatalf("Record %s: %v", name, err)
		}
	}

	changes, err := l.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(changes) != 2 || changes[0].Canonical != "D" || changes[1].Canonical != "C" {
		t.Fatalf("List(2) = %+v", changes)
	}

	all, err := l.List(ctx, 0)
	if err != nil {
		t.Fatalf("List(0): %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List(0) should use the default limit, got %d", len(all))
	}
}

func TestReopen_KeepsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Record(context.Background(), Change{Canonical: "Replit"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()
	changes, err := l2.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(changes) != 1 || changes[0].Canonical != "Replit" {
		t.Errorf("changes after reopen = %+v", changes)
	}
}
