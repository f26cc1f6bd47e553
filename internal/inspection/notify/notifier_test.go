package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	inspectionapp "seismic-network/internal/inspection/application"
	masterdata "seismic-network/internal/masterdata/domain"
)

type stubEmployeeRepo struct {
	employees []masterdata.Employee
}

func (s stubEmployeeRepo) ListByRole(_ context.Context, _ string) ([]masterdata.Employee, error) {
	return s.employees, nil
}

type stubStationRepo struct {
	station *masterdata.Station
}

func (s stubStationRepo) Get(_ context.Context, _ string) (*masterdata.Station, error) {
	return s.station, nil
}

func testEvent() inspectionapp.RepairEvent {
	return inspectionapp.RepairEvent{
		SeismographID: "seis-1",
		StationCode:   "station-1",
		NewStatus:     "Out of Service",
		RegisteredAt:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		ClosedBy:      "Juan Pérez",
		Reasons: []masterdata.Reason{
			{Type: masterdata.ReasonType{ID: "sensor-damaged", Description: "Sensor damaged"}, Comment: "cracked case"},
		},
	}
}

func TestNotifyRepairMail(t *testing.T) {
	var (
		gotTo  []string
		gotMsg string
	)
	mail, err := NewSMTPChannel("smtp.example.com:25", "noreply@example.com",
		WithSendFunc(func(_ string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotTo = to
			gotMsg = string(msg)
			return nil
		}))
	if err != nil {
		t.Fatalf("new smtp channel: %v", err)
	}

	repo := stubEmployeeRepo{employees: []masterdata.Employee{
		{ID: "emp-2", Name: "Ana", Surname: "García", Email: "ana.garcia@example.com", Role: masterdata.RoleRepairResponsible},
		{ID: "emp-3", Name: "Luis", Surname: "Sosa", Email: "", Role: masterdata.RoleRepairResponsible},
	}}
	notifier, err := NewNotifier(repo, stubStationRepo{station: &masterdata.Station{Code: "station-1", Name: "Cerro Azul"}}, mail, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	notifier.NotifyRepair(context.Background(), testEvent())

	if len(gotTo) != 1 || gotTo[0] != "ana.garcia@example.com" {
		t.Fatalf("recipients = %v, want only the addressable repair responsible", gotTo)
	}
	checks := []string{
		"Seismograph ID: seis-1",
		"Station: Cerro Azul",
		"New status: Out of Service",
		"Registered at: 2024-01-01T10:00:00Z",
		"Closed by: Juan Pérez",
		"- Sensor damaged: cracked case",
	}
	for _, check := range checks {
		if !strings.Contains(gotMsg, check) {
			t.Fatalf("mail body missing %q:\n%s", check, gotMsg)
		}
	}
}

func TestNotifyRepairDashboard(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new webhook channel: %v", err)
	}
	notifier, err := NewNotifier(stubEmployeeRepo{}, nil, nil, channel)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	notifier.NotifyRepair(context.Background(), testEvent())

	select {
	case payload := <-payloadCh:
		if payload.MsgType != "text" {
			t.Fatalf("msgtype = %q, want text", payload.MsgType)
		}
		if !strings.Contains(payload.Text.Content, "Station: station-1") {
			t.Fatalf("content should fall back to the station code:\n%s", payload.Text.Content)
		}
		if !strings.Contains(payload.Text.Content, "Seismograph ID: seis-1") {
			t.Fatalf("content missing seismograph id:\n%s", payload.Text.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dashboard notification not delivered")
	}
}

func TestNotifyRepairMailFailureIsSwallowed(t *testing.T) {
	mail, err := NewSMTPChannel("smtp.example.com:25", "noreply@example.com",
		WithSendFunc(func(_ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
			return context.DeadlineExceeded
		}))
	if err != nil {
		t.Fatalf("new smtp channel: %v", err)
	}
	repo := stubEmployeeRepo{employees: []masterdata.Employee{
		{ID: "emp-2", Name: "Ana", Surname: "García", Email: "ana.garcia@example.com", Role: masterdata.RoleRepairResponsible},
	}}
	notifier, err := NewNotifier(repo, nil, mail, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	// Must not panic or propagate the channel error.
	notifier.NotifyRepair(context.Background(), testEvent())
}

func TestTemplateCustom(t *testing.T) {
	tpl, err := NewTemplate("{{.SeismographID}} -> {{.NewStatus}}")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	content, err := tpl.Render(TemplateData{SeismographID: "seis-1", NewStatus: "Out of Service"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if content != "seis-1 -> Out of Service" {
		t.Fatalf("content = %q", content)
	}
}
