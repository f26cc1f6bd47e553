package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"seismic-network/internal/auth"
	inspectionapp "seismic-network/internal/inspection/application"
	inspection "seismic-network/internal/inspection/domain"
	"seismic-network/internal/inspection/interfaces"
	masterdata "seismic-network/internal/masterdata/domain"
	seismograph "seismic-network/internal/seismograph/domain"
)

// EmployeeReader resolves the logged employee from the token identity.
type EmployeeReader interface {
	Get(ctx context.Context, id string) (*masterdata.Employee, error)
}

// ReasonTypeLister serves the reason type catalog.
type ReasonTypeLister interface {
	List(ctx context.Context) ([]masterdata.ReasonType, error)
}

// StatusCodeLister serves the order status catalog.
type StatusCodeLister interface {
	List(ctx context.Context) ([]inspection.StatusCode, error)
}

// OrderReader loads a single order for the closure report.
type OrderReader interface {
	Get(ctx context.Context, number int) (*inspection.Order, error)
}

// SeismographReader loads the station's device for the closure report.
type SeismographReader interface {
	GetByStation(ctx context.Context, stationCode string) (*seismograph.Seismograph, error)
}

// Handler provides the close-order workflow and inspection lookups over
// HTTP.
type Handler struct {
	sessions    *inspectionapp.Manager
	employees   EmployeeReader
	reasonTypes ReasonTypeLister
	statusCodes StatusCodeLister
	orders      OrderReader
	devices     SeismographReader
}

// NewHandler constructs a handler.
func NewHandler(sessions *inspectionapp.Manager, employees EmployeeReader, reasonTypes ReasonTypeLister, statusCodes StatusCodeLister, orders OrderReader, devices SeismographReader) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("inspection handler: nil session manager")
	}
	if employees == nil {
		return nil, errors.New("inspection handler: nil employee reader")
	}
	return &Handler{
		sessions:    sessions,
		employees:   employees,
		reasonTypes: reasonTypes,
		statusCodes: statusCodes,
		orders:      orders,
		devices:     devices,
	}, nil
}

// ServeHTTP handles /api/v1/inspection, /api/v1/reason-types and
// /api/v1/status-codes subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/reason-types":
		h.handleReasonTypes(w, r)
	case r.URL.Path == "/api/v1/status-codes":
		h.handleStatusCodes(w, r)
	case r.URL.Path == "/api/v1/inspection/close":
		h.handleOpenSession(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/inspection/close/"):
		h.handleSessionAction(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/inspection/orders/"):
		h.handleOrderReport(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type sessionView struct {
	SessionID string      `json:"session_id"`
	Step      string      `json:"step"`
	Eligible  []orderView `json:"eligible_orders,omitempty"`
}

type orderView struct {
	Number             int    `json:"number"`
	Station            string `json:"station"`
	Status             string `json:"status"`
	EmittedAt          string `json:"emitted_at"`
	CompletedAt        string `json:"completed_at,omitempty"`
	ClosedAt           string `json:"closed_at,omitempty"`
	ClosureObservation string `json:"closure_observation,omitempty"`
	Responsible        string `json:"responsible"`
}

type closureView struct {
	Order         orderView `json:"order"`
	SeismographID string    `json:"seismograph_id"`
	DeviceStatus  string    `json:"device_status"`
	StatusChanged bool      `json:"status_changed"`
}

func toOrderView(order inspection.Order) orderView {
	view := orderView{
		Number:             order.Number,
		Station:            order.StationCode,
		Status:             string(order.Status),
		EmittedAt:          order.EmittedAt.Format(time.RFC3339),
		ClosureObservation: order.ClosureObservation,
		Responsible:        order.Responsible.FullName(),
	}
	if !order.CompletedAt.IsZero() {
		view.CompletedAt = order.CompletedAt.Format(time.RFC3339)
	}
	if !order.ClosedAt.IsZero() {
		view.ClosedAt = order.ClosedAt.Format(time.RFC3339)
	}
	return view
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	employee, err := h.loggedEmployee(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Open(*employee)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	eligible, err := session.ListEligibleOrders(r.Context())
	if err != nil {
		http.Error(w, "list eligible orders failed", http.StatusInternalServerError)
		return
	}

	view := sessionView{SessionID: session.ID(), Step: string(session.Step())}
	for _, order := range eligible {
		view.Eligible = append(view.Eligible, toOrderView(order))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *Handler) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/inspection/close/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	session, err := h.sessions.Get(parts[0])
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if employee, err := h.loggedEmployee(r); err != nil || employee.ID != session.Employee().ID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	switch parts[1] {
	case "order":
		h.handleSelectOrder(w, r, session)
	case "observation":
		h.handleObservation(w, r, session)
	case "reasons":
		h.handleReasons(w, r, session)
	case "confirm":
		h.handleConfirm(w, r, session)
	case "cancel":
		h.handleCancel(w, r, session)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSelectOrder(w http.ResponseWriter, r *http.Request, session *inspectionapp.Session) {
	var req struct {
		Number int `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := session.SelectOrder(req.Number); err != nil {
		respondSessionError(w, err)
		return
	}
	respondStep(w, session)
}

func (h *Handler) handleObservation(w http.ResponseWriter, r *http.Request, session *inspectionapp.Session) {
	var req struct {
		Observation string `json:"observation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := session.RecordObservation(req.Observation); err != nil {
		respondSessionError(w, err)
		return
	}
	respondStep(w, session)
}

func (h *Handler) handleReasons(w http.ResponseWriter, r *http.Request, session *inspectionapp.Session) {
	var req struct {
		Reasons []struct {
			TypeID  string `json:"type_id"`
			Comment string `json:"comment"`
		} `json:"reasons"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	reasons, err := h.resolveReasons(r.Context(), req.Reasons)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := session.SelectReasons(reasons); err != nil {
		respondSessionError(w, err)
		return
	}
	respondStep(w, session)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request, session *inspectionapp.Session) {
	result, err := session.Confirm(r.Context())
	if err != nil {
		respondSessionError(w, err)
		return
	}
	h.sessions.Release(session.ID())

	view := closureView{
		Order:         toOrderView(*result.Order),
		StatusChanged: result.StatusChanged,
	}
	if result.Seismograph != nil {
		view.SeismographID = result.Seismograph.ID
		view.DeviceStatus = string(result.Seismograph.Status)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *Handler) handleCancel(w http.ResponseWriter, _ *http.Request, session *inspectionapp.Session) {
	if err := session.Cancel(); err != nil {
		respondSessionError(w, err)
		return
	}
	h.sessions.Release(session.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReasonTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.reasonTypes == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	types, err := h.reasonTypes.List(r.Context())
	if err != nil {
		http.Error(w, "list reason types failed", http.StatusInternalServerError)
		return
	}
	views := make([]map[string]string, 0, len(types))
	for _, t := range types {
		views = append(views, map[string]string{"id": t.ID, "description": t.Description})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *Handler) handleStatusCodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.statusCodes == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	codes, err := h.statusCodes.List(r.Context())
	if err != nil {
		http.Error(w, "list status codes failed", http.StatusInternalServerError)
		return
	}
	views := make([]map[string]string, 0, len(codes))
	for _, c := range codes {
		views = append(views, map[string]string{"code": string(c.Code), "display_name": c.DisplayName})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// handleOrderReport serves GET /api/v1/inspection/orders/{number}/report in
// xlsx (default) or pdf format.
func (h *Handler) handleOrderReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.orders == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/inspection/orders/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "report" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	number, err := strconv.Atoi(parts[0])
	if err != nil || number <= 0 {
		http.Error(w, "invalid order number", http.StatusBadRequest)
		return
	}

	order, err := h.orders.Get(r.Context(), number)
	if err != nil {
		http.Error(w, "load order failed", http.StatusInternalServerError)
		return
	}
	if order == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var device *seismograph.Seismograph
	if h.devices != nil {
		device, err = h.devices.GetByStation(r.Context(), order.StationCode)
		if err != nil {
			http.Error(w, "load seismograph failed", http.StatusInternalServerError)
			return
		}
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "pdf":
		data, err := interfaces.BuildClosureReportPDF(order, device)
		if err != nil {
			http.Error(w, "build report failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order-%d.pdf", number))
		_, _ = w.Write(data)
	case "", "xlsx":
		data, err := interfaces.BuildClosureReportXLSX(order, device)
		if err != nil {
			http.Error(w, "build report failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order-%d.xlsx", number))
		_, _ = w.Write(data)
	default:
		http.Error(w, "format must be xlsx or pdf", http.StatusBadRequest)
	}
}

func (h *Handler) resolveReasons(ctx context.Context, selections []struct {
	TypeID  string `json:"type_id"`
	Comment string `json:"comment"`
}) ([]masterdata.Reason, error) {
	if len(selections) == 0 {
		return nil, nil
	}
	if h.reasonTypes == nil {
		return nil, errors.New("reason catalog unavailable")
	}
	types, err := h.reasonTypes.List(ctx)
	if err != nil {
		return nil, errors.New("list reason types failed")
	}
	byID := make(map[string]masterdata.ReasonType, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}

	reasons := make([]masterdata.Reason, 0, len(selections))
	for _, sel := range selections {
		reasonType, ok := byID[sel.TypeID]
		if !ok {
			return nil, fmt.Errorf("unknown reason type %q", sel.TypeID)
		}
		reason, err := masterdata.NewReason(reasonType, sel.Comment)
		if err != nil {
			return nil, err
		}
		reasons = append(reasons, reason)
	}
	return reasons, nil
}

func (h *Handler) loggedEmployee(r *http.Request) (*masterdata.Employee, error) {
	employeeID := auth.EmployeeIDFromContext(r.Context())
	if employeeID == "" {
		return nil, errors.New("missing identity")
	}
	employee, err := h.employees.Get(r.Context(), employeeID)
	if err != nil {
		return nil, errors.New("resolve employee failed")
	}
	if employee == nil {
		return nil, errors.New("unknown employee")
	}
	return employee, nil
}

func respondStep(w http.ResponseWriter, session *inspectionapp.Session) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sessionView{SessionID: session.ID(), Step: string(session.Step())})
}

func respondSessionError(w http.ResponseWriter, err error) {
	var stepErr *inspectionapp.StepError
	if errors.As(err, &stepErr) {
		http.Error(w, stepErr.Error(), http.StatusConflict)
		return
	}
	var validationErr *inspectionapp.ValidationError
	if errors.As(err, &validationErr) {
		http.Error(w, validationErr.Error(), http.StatusUnprocessableEntity)
		return
	}
	var persistErr *inspectionapp.PersistenceError
	if errors.As(err, &persistErr) {
		http.Error(w, "persist closure failed", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, inspection.ErrNotFound) || errors.Is(err, seismograph.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, inspection.ErrAlreadyClosed) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
