package api

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"github.com/hazyhaar/product-name-normalizer/pkg/history"
	"github.com/hazyhaar/product-name-normalizer/pkg/kit"
)

// History journals dictionary edits. *history.Log implements it.
type History interface {
	Record(ctx context.Context, c history.Change) error
	List(ctx context.Context, limit int) ([]history.Change, error)
}

// Shared request/response types used by both HTTP and MCP transports.

type FixTermsRequest struct {
	Text string
}

type AddTermRequest struct {
	Correct  string
	Variants []string
}

type HistoryRequest struct {
	Limit int
}

type termEntry struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

type termsResponse struct {
	Terms []termEntry `json:"terms"`
}

type historyResponse struct {
	Changes []history.Change `json:"changes"`
}

// Endpoints groups the transport-agnostic operations of the service.
type Endpoints struct {
	FixTerms  kit.Endpoint
	AddTerm   kit.Endpoint
	ListTerms kit.Endpoint
	History   kit.Endpoint
}

// NewEndpoints builds the endpoints over engine. hist may be nil.
func NewEndpoints(engine *dict.Engine, hist History, logger *slog.Logger) Endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	return Endpoints{
		FixTerms:  kit.Logging(logger, "fix_terms")(fixTermsEndpoint(engine)),
		AddTerm:   kit.Chain(kit.Logging(logger, "add_term"), recordChange(hist, logger))(addTermEndpoint(engine)),
		ListTerms: kit.Logging(logger, "list_terms")(listTermsEndpoint(engine)),
		History:   kit.Logging(logger, "history")(historyEndpoint(hist)),
	}
}

func fixTermsEndpoint(engine *dict.Engine) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*FixTermsRequest)
		return engine.FixTerms(req.Text)
	}
}

func addTermEndpoint(engine *dict.Engine) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*AddTermRequest)
		return engine.AddTerm(req.Correct, req.Variants)
	}
}

// recordChange journals every successful add_term call. A nil hist disables it.
func recordChange(hist History, logger *slog.Logger) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		if hist == nil {
			return next
		}
		return func(ctx context.Context, request any) (any, error) {
			resp, err := next(ctx, request)
			if err != nil {
				return resp, err
			}
			req := request.(*AddTermRequest)
			change := history.Change{
				Canonical: dict.TrimTerm(req.Correct),
				Variants:  dict.CleanVariants(req.Variants),
				Transport: kit.GetTransport(ctx),
			}
			// The dictionary is already saved; a journal failure does not undo it.
			if err := hist.Record(ctx, change); err != nil {
				logger.Warn("history record failed", "canonical", change.Canonical, "error", err)
			}
			return resp, nil
		}
	}
}

func listTermsEndpoint(engine *dict.Engine) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		terms, err := engine.Terms()
		if err != nil {
			return nil, err
		}
		resp := termsResponse{Terms: make([]termEntry, 0, terms.Len())}
		terms.Each(func(canonical string, variants []string) {
			resp.Terms = append(resp.Terms, termEntry{Canonical: canonical, Variants: variants})
		})
		return resp, nil
	}
}

func historyEndpoint(hist History) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if hist == nil {
			return historyResponse{Changes: []history.Change{}}, nil
		}
		req := request.(*HistoryRequest)
		changes, err := hist.List(ctx, req.Limit)
		if err != nil {
			return nil, err
		}
		return historyResponse{Changes: changes}, nil
	}
}
