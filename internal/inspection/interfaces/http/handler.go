package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/azorean79/gestor-naval-pro-sub005/internal/audit"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/auth"
	complianceapp "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/application"
	inspapp "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/application"
	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/interfaces"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/observability/metrics"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// Handler provides the inspection, unit, and provisioning HTTP endpoints.
type Handler struct {
	orchestrator *inspapp.Orchestrator
	provisioner  *inspapp.Provisioner
	evaluator    *complianceapp.Service
	units        inspapp.UnitRepository
	auditLogger  audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(orchestrator *inspapp.Orchestrator, provisioner *inspapp.Provisioner, evaluator *complianceapp.Service, units inspapp.UnitRepository, auditLogger audit.Logger) (*Handler, error) {
	if orchestrator == nil {
		return nil, errors.New("inspection handler: nil orchestrator")
	}
	if provisioner == nil {
		return nil, errors.New("inspection handler: nil provisioner")
	}
	if evaluator == nil {
		return nil, errors.New("inspection handler: nil evaluator")
	}
	if units == nil {
		return nil, errors.New("inspection handler: nil unit repository")
	}
	return &Handler{orchestrator: orchestrator, provisioner: provisioner, evaluator: evaluator, units: units, auditLogger: auditLogger}, nil
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID, vesselID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		VesselID:     vesselID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// ServeHTTP routes /api/v1/inspections, /api/v1/units, /api/v1/cylinders,
// and /api/v1/provisioning.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/inspections":
		h.handleInspections(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/inspections/"):
		h.handleInspectionSubroute(w, r)
	case r.URL.Path == "/api/v1/units":
		h.handleListUnits(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/units/"):
		h.handleUnitSubroute(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/cylinders/"):
		h.handleCylinderSubroute(w, r)
	case r.URL.Path == "/api/v1/provisioning/units":
		h.handleProvisionUnit(w, r)
	case r.URL.Path == "/api/v1/provisioning/cylinders":
		h.handleProvisionCylinder(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleInspections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req inspapp.RecordInspectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		outcome, err := h.orchestrator.RecordInspection(r.Context(), req)
		if err != nil {
			respondError(w, err)
			return
		}
		h.logAudit(r, "inspection.record", "inspection_record", outcome.Record.ID, outcome.Unit.VesselID)
		writeJSON(w, http.StatusCreated, outcome)
	case http.MethodGet:
		unitID := r.URL.Query().Get("unit_id")
		if unitID == "" {
			http.Error(w, "unit_id is required", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		records, err := h.orchestrator.History(r.Context(), unitID, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		if records == nil {
			records = []inspection.InspectionRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleInspectionSubroute serves certificate downloads:
// GET /api/v1/inspections/{id}/certificate.{pdf|xlsx}
func (h *Handler) handleInspectionSubroute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/inspections/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	record, err := h.orchestrator.Record(r.Context(), parts[0])
	if err != nil {
		respondError(w, err)
		return
	}
	var unit *inspection.Unit
	if record.UnitID != "" {
		unit, err = h.units.Get(r.Context(), record.UnitID)
		if err != nil && !errors.Is(err, inspection.ErrNotFound) {
			respondError(w, err)
			return
		}
	}

	switch parts[1] {
	case "certificate.pdf":
		start := time.Now()
		data, err := interfaces.BuildCertificatePDF(record, unit)
		metrics.ObserveCertificateExport("pdf", exportResult(err), time.Since(start))
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="certificate-`+record.ID+`.pdf"`)
		_, _ = w.Write(data)
	case "certificate.xlsx":
		start := time.Now()
		data, err := interfaces.BuildCertificateXLSX(record, unit)
		metrics.ObserveCertificateExport("xlsx", exportResult(err), time.Since(start))
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="certificate-`+record.ID+`.xlsx"`)
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleListUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	units, err := h.units.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if units == nil {
		units = []inspection.Unit{}
	}
	writeJSON(w, http.StatusOK, units)
}

// handleUnitSubroute serves GET /api/v1/units/{id} and
// GET /api/v1/units/{id}/evaluation.
func (h *Handler) handleUnitSubroute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/units/")
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		unit, err := h.units.Get(r.Context(), parts[0])
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, unit)
	case len(parts) == 2 && parts[1] == "evaluation":
		evaluation, err := h.evaluator.EvaluateUnit(r.Context(), parts[0])
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, evaluation)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleCylinderSubroute serves POST /api/v1/cylinders/{id}/tests.
func (h *Handler) handleCylinderSubroute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/cylinders/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "tests" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req inspapp.RecordCylinderTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.CylinderID = parts[0]
	outcome, err := h.orchestrator.RecordCylinderTest(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "cylinder.test", "inspection_record", outcome.Record.ID, "")
	writeJSON(w, http.StatusCreated, outcome)
}

func (h *Handler) handleProvisionUnit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req inspapp.ProvisionUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	unit, err := h.provisioner.ProvisionUnit(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "unit.provision", "unit", unit.ID, unit.VesselID)
	writeJSON(w, http.StatusCreated, unit)
}

func (h *Handler) handleProvisionCylinder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req inspapp.ProvisionCylinderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	cylinder, err := h.provisioner.ProvisionCylinder(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "cylinder.provision", "cylinder", cylinder.ID, "")
	writeJSON(w, http.StatusCreated, cylinder)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps domain errors onto HTTP statuses: invalid input and
// shortfalls are 400, unknown references 404, retryable conflicts and state
// refusals 409.
func respondError(w http.ResponseWriter, err error) {
	var verr *inspection.ValidationError
	var serr *stock.ValidationError
	var insufficient *stock.InsufficientStockError
	switch {
	case errors.As(err, &verr), errors.As(err, &serr), errors.As(err, &insufficient):
		writeJSONError(w, http.StatusBadRequest, err)
	case errors.Is(err, inspection.ErrUnknownUnit),
		errors.Is(err, inspection.ErrUnknownCylinder),
		errors.Is(err, inspection.ErrUnknownVessel),
		errors.Is(err, inspection.ErrNotFound),
		errors.Is(err, complianceapp.ErrUnitNotFound),
		errors.Is(err, stock.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, stock.ErrTransactionConflict),
		errors.Is(err, inspection.ErrDuplicateSerial),
		errors.Is(err, inspection.ErrUnitRetired):
		writeJSONError(w, http.StatusConflict, err)
	case errors.Is(err, interfaces.ErrNotCertifiable):
		writeJSONError(w, http.StatusConflict, err)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func exportResult(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type errorPayload struct {
	Error      string                  `json:"error"`
	Fields     []inspection.FieldError `json:"fields,omitempty"`
	Shortfalls []stock.Shortfall       `json:"shortfalls,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	payload := errorPayload{Error: err.Error()}
	var verr *inspection.ValidationError
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
