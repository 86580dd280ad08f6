package http

import (
	"encoding/json"
	"errors"
	"net/http"

	alertapp "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/application"
	alerts "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/domain"
)

// Handler provides the alert feed HTTP endpoint.
type Handler struct {
	service *alertapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *alertapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/alerts.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/alerts" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	feed, err := h.service.Scan(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if tier := r.URL.Query().Get("tier"); tier != "" {
		filtered := feed[:0]
		for _, item := range feed {
			if item.Tier == alerts.Tier(tier) {
				filtered = append(filtered, item)
			}
		}
		feed = filtered
	}
	if feed == nil {
		feed = []alerts.AlertItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(feed)
}
