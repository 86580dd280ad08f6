package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/azorean79/gestor-naval-pro-sub005/internal/audit"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/auth"
	stockapp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/application"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// Handler provides the stock HTTP endpoints.
type Handler struct {
	coordinator *stockapp.Coordinator
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(coordinator *stockapp.Coordinator, auditLogger audit.Logger) (*Handler, error) {
	if coordinator == nil {
		return nil, errors.New("stock handler: nil coordinator")
	}
	return &Handler{coordinator: coordinator, auditLogger: auditLogger}, nil
}

type batchRequest struct {
	Lines       []stock.Line `json:"lines"`
	Reason      string       `json:"reason"`
	Responsible string       `json:"responsible"`
}

// ServeHTTP routes /api/v1/stock and its subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/stock":
		h.handleList(w, r)
	case "/api/v1/stock/consume":
		h.handleBatch(w, r, "stock.consume", h.coordinator.Consume)
	case "/api/v1/stock/replenish":
		h.handleBatch(w, r, "stock.replenish", h.coordinator.Replenish)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := h.coordinator.Items(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("low") == "true" {
		filtered := items[:0]
		for _, item := range items {
			if item.Low() {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	if items == nil {
		items = []stock.StockItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

type batchFunc func(ctx context.Context, lines []stock.Line, reason, responsible string) (*stockapp.Result, error)

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request, action string, apply batchFunc) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	result, err := apply(r.Context(), req.Lines, req.Reason, req.Responsible)
	if err != nil {
		respondError(w, err)
		return
	}
	if h.auditLogger != nil {
		meta, _ := json.Marshal(map[string]any{"lines": req.Lines, "reason": req.Reason})
		_ = h.auditLogger.Log(r.Context(), audit.Entry{
			Actor:        auth.SubjectFromContext(r.Context()),
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       action,
			ResourceType: "stock_batch",
			Metadata:     meta,
			IP:           audit.ClientIP(r),
			UserAgent:    r.UserAgent(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

func respondError(w http.ResponseWriter, err error) {
	var verr *stock.ValidationError
	var insufficient *stock.InsufficientStockError
	switch {
	case errors.As(err, &verr), errors.As(err, &insufficient):
		writeJSONError(w, http.StatusBadRequest, err)
	case errors.Is(err, stock.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, stock.ErrTransactionConflict):
		writeJSONError(w, http.StatusConflict, err)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type errorPayload struct {
	Error      string             `json:"error"`
	Fields     []stock.FieldError `json:"fields,omitempty"`
	Shortfalls []stock.Shortfall  `json:"shortfalls,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	payload := errorPayload{Error: err.Error()}
	var verr *stock.ValidationError
	if errors.As(err, &verr) {
		payload.Fields = verr.Fields
	}
	var insufficient *stock.InsufficientStockError
	if errors.As(err, &insufficient) {
		payload.Shortfalls = insufficient.Shortfalls
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
