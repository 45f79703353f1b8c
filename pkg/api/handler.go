package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"github.com/hazyhaar/product-name-normalizer/pkg/kit"
	"github.com/rs/cors"
)

// NewRouter returns an http.Handler with all normalizer API routes.
func NewRouter(eps Endpoints) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps}

	mux.HandleFunc("GET /v1/fix", methodNotAllowed)
	mux.HandleFunc("POST /v1/fix", h.handleFix)
	mux.HandleFunc("GET /v1/terms", h.handleListTerms)
	mux.HandleFunc("POST /v1/terms", h.handleAddTerm)
	mux.HandleFunc("GET /v1/history", h.handleHistory)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

type handler struct {
	eps Endpoints
}

// --- fix ---

type httpFixRequest struct {
	Text string `json:"text"`
}

type httpFixResponse struct {
	Text string `json:"text"`
}

func (h *handler) handleFix(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB max
	var req httpFixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.eps.FixTerms(kit.WithTransport(r.Context(), "http"), &FixTermsRequest{Text: req.Text})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpFixResponse{Text: resp.(string)})
}

// --- add term ---

type httpAddTermRequest struct {
	Correct       string   `json:"correct"`
	WrongVariants []string `json:"wrong_variants"`
}

type httpStatusResponse struct {
	Status string `json:"status"`
}

func (h *handler) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpAddTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.eps.AddTerm(kit.WithTransport(r.Context(), "http"), &AddTermRequest{
		Correct:  req.Correct,
		Variants: req.WrongVariants,
	})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpStatusResponse{Status: resp.(string)})
}

// --- list terms ---

func (h *handler) handleListTerms(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.ListTerms(kit.WithTransport(r.Context(), "http"), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- history ---

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	resp, err := h.eps.History(kit.WithTransport(r.Context(), "http"), &HistoryRequest{Limit: limit})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, httpStatusResponse{Status: "ok"})
}

// --- helpers ---

func writeEndpointError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, dict.ErrValidation) {
		code = http.StatusBadRequest
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
