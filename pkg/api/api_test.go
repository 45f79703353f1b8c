package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"github.com/hazyhaar/product-name-normalizer/pkg/history"
	"github.com/hazyhaar/product-name-normalizer/pkg/kit"
)

// memHistory is an in-memory History.
type memHistory struct {
	mu      sync.Mutex
	changes []history.Change
	failRec bool
}

func (m *memHistory) Record(_ context.Context, c history.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRec {
		return errors.New("disk full")
	}
	c.ID = int64(len(m.changes) + 1)
	m.changes = append(m.changes, c)
	return nil
}

func (m *memHistory) List(_ context.Context, limit int) ([]history.Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []history.Change{}
	for i := len(m.changes) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.changes[i])
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEndpoints(t *testing.T, hist History) (Endpoints, *dict.Engine) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.json")
	engine, err := dict.NewEngine(path, dict.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return NewEndpoints(engine, hist, quietLogger()), engine
}

func TestAddTermEndpoint_RecordsHistory(t *testing.T) {
	hist := &memHistory{}
	eps, _ := newTestEndpoints(t, hist)

	resp, err := eps.AddTerm(context.Background(), &AddTermRequest{Correct: "  FooBar ", Variants: []string{"foobar"}})
	if err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want ok", resp)
	}
	if len(hist.changes) != 1 {
		t.Fatalf("expected 1 recorded change, got %d", len(hist.changes))
	}
	c := hist.changes[0]
	if c.Canonical != "FooBar" || c.Transport != "http" {
		t.Errorf("change = %+v", c)
	}
}

func TestAddTermEndpoint_RecordsCleanedVariants(t *testing.T) {
	hist := &memHistory{}
	eps, _ := newTestEndpoints(t, hist)

	ctx := kit.WithTransport(context.Background(), "mcp_stdio")
	req := &AddTermRequest{Correct: "Acme", Variants: []string{"  akme ", "", " ", "ACME Inc"}}
	if _, err := eps.AddTerm(ctx, req); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	want := history.Change{ID: 1, Canonical: "Acme", Variants: []string{"akme", "ACME Inc"}, Transport: "mcp_stdio"}
	if len(hist.changes) != 1 || !reflect.DeepEqual(hist.changes[0], want) {
		t.Errorf("changes = %+v, want %+v", hist.changes, want)
	}
}

func TestAddTermEndpoint_WithoutHistory(t *testing.T) {
	eps, engine := newTestEndpoints(t, nil)

	if _, err := eps.AddTerm(context.Background(), &AddTermRequest{Correct: "Acme", Variants: []string{"akme"}}); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	if got, _ := engine.FixTerms("akme"); got != "Acme" {
		t.Errorf("FixTerms = %q", got)
	}
}

func TestAddTermEndpoint_ValidationNotRecorded(t *testing.T) {
	hist := &memHistory{}
	eps, _ := newTestEndpoints(t, hist)

	_, err := eps.AddTerm(context.Background(), &AddTermRequest{Correct: "   "})
	if !errors.Is(err, dict.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(hist.changes) != 0 {
		t.Errorf("failed add_term should not be journaled")
	}
}

func TestAddTermEndpoint_HistoryFailureIgnored(t *testing.T) {
	eps, engine := newTestEndpoints(t, &memHistory{failRec: true})

	if _, err := eps.AddTerm(context.Background(), &AddTermRequest{Correct: "FooBar", Variants: []string{"foobar"}}); err != nil {
		t.Fatalf("AddTerm should succeed despite journal failure: %v", err)
	}
	got, err := engine.FixTerms("foobar")
	if err != nil || got != "FooBar" {
		t.Errorf("FixTerms = %q, %v", got, err)
	}
}

func TestListTermsEndpoint(t *testing.T) {
	eps, _ := newTestEndpoints(t, nil)

	resp, err := eps.ListTerms(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTerms: %v", err)
	}
	terms := resp.(termsResponse).Terms
	if len(terms) != 9 {
		t.Fatalf("expected 9 default terms, got %d", len(terms))
	}
	// The bootstrap file is written with sorted keys.
	if terms[0].Canonical != "Antigravity" {
		t.Errorf("first term = %q, want Antigravity", terms[0].Canonical)
	}
}

func TestHistoryEndpoint_Disabled(t *testing.T) {
	eps, _ := newTestEndpoints(t, nil)

	resp, err := eps.History(context.Background(), &HistoryRequest{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if changes := resp.(historyResponse).Changes; changes == nil || len(changes) != 0 {
		t.Errorf("changes = %#v, want empty list", changes)
	}
}
