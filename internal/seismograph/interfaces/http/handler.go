package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"seismic-network/internal/auth"
	seismographapp "seismic-network/internal/seismograph/application"
	seismograph "seismic-network/internal/seismograph/domain"
)

// Handler provides seismograph HTTP endpoints.
type Handler struct {
	service *seismographapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *seismographapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("seismograph handler: nil service")
	}
	return &Handler{service: service}, nil
}

type stateChangeView struct {
	Status        string       `json:"status"`
	StartAt       string       `json:"start_at"`
	EndAt         string       `json:"end_at,omitempty"`
	Comment       string       `json:"comment,omitempty"`
	ResponsibleID string       `json:"responsible_id,omitempty"`
	Reasons       []reasonView `json:"reasons,omitempty"`
}

type reasonView struct {
	TypeID      string `json:"type_id"`
	Description string `json:"description"`
	Comment     string `json:"comment,omitempty"`
}

type seismographView struct {
	ID           string            `json:"id"`
	SerialNumber string            `json:"serial_number"`
	StationCode  string            `json:"station_code"`
	Status       string            `json:"status"`
	AcquiredAt   string            `json:"acquired_at"`
	History      []stateChangeView `json:"history"`
}

func toView(device *seismograph.Seismograph) seismographView {
	view := seismographView{
		ID:           device.ID,
		SerialNumber: device.SerialNumber,
		StationCode:  device.StationCode,
		Status:       string(device.Status),
		AcquiredAt:   device.AcquiredAt.Format(time.RFC3339),
	}
	for _, entry := range device.History {
		entryView := stateChangeView{
			Status:        string(entry.Status),
			StartAt:       entry.StartAt.Format(time.RFC3339),
			Comment:       entry.Comment,
			ResponsibleID: entry.ResponsibleID,
		}
		if !entry.EndAt.IsZero() {
			entryView.EndAt = entry.EndAt.Format(time.RFC3339)
		}
		for _, reason := range entry.Reasons {
			entryView.Reasons = append(entryView.Reasons, reasonView{
				TypeID:      reason.Type.ID,
				Description: reason.Type.Description,
				Comment:     reason.Comment,
			})
		}
		view.History = append(view.History, entryView)
	}
	return view
}

// ServeHTTP handles /api/v1/seismographs subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/seismographs/")
	if path == "" || path == r.URL.Path {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "repaired":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRepaired(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	device, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, seismograph.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toView(device))
}

// handleRepaired returns a repaired out-of-service device to Online. A
// device already online is reported unchanged, not an error.
func (h *Handler) handleRepaired(w http.ResponseWriter, r *http.Request, id string) {
	responsibleID := auth.EmployeeIDFromContext(r.Context())
	device, changed, err := h.service.SetOnline(r.Context(), id, responsibleID)
	if err != nil {
		if errors.Is(err, seismograph.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Changed     bool            `json:"changed"`
		Seismograph seismographView `json:"seismograph"`
	}{Changed: changed, Seismograph: toView(device)})
}
