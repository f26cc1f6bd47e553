package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seismic-network/internal/auth"
	inspectionapp "seismic-network/internal/inspection/application"
	inspection "seismic-network/internal/inspection/domain"
	masterdata "seismic-network/internal/masterdata/domain"
	seismograph "seismic-network/internal/seismograph/domain"
)

type stubEmployees struct {
	employees map[string]*masterdata.Employee
}

func (s stubEmployees) Get(_ context.Context, id string) (*masterdata.Employee, error) {
	return s.employees[id], nil
}

type stubReasonTypes struct{}

func (stubReasonTypes) List(_ context.Context) ([]masterdata.ReasonType, error) {
	return []masterdata.ReasonType{
		{ID: "sensor-damaged", Description: "Sensor damaged"},
		{ID: "vandalism", Description: "Vandalism"},
	}, nil
}

type stubStatusCodes struct{}

func (stubStatusCodes) List(_ context.Context) ([]inspection.StatusCode, error) {
	return []inspection.StatusCode{
		{Code: inspection.StatusInProgress, DisplayName: "In Progress"},
		{Code: inspection.StatusCompletelyPerformed, DisplayName: "Completely Performed"},
		{Code: inspection.StatusClosed, DisplayName: "Closed"},
	}, nil
}

type stubOrders struct {
	orders []inspection.Order
}

func (s stubOrders) ListEligible(_ context.Context, _, _ string) ([]inspection.Order, error) {
	return s.orders, nil
}

func (s stubOrders) Get(_ context.Context, number int) (*inspection.Order, error) {
	for i := range s.orders {
		if s.orders[i].Number == number {
			order := s.orders[i]
			return &order, nil
		}
	}
	return nil, nil
}

type stubDevices struct {
	device *seismograph.Seismograph
}

func (s stubDevices) GetByStation(_ context.Context, _ string) (*seismograph.Seismograph, error) {
	return s.device, nil
}

type noopPersister struct{}

func (noopPersister) PersistClosure(_ context.Context, _ *inspection.Order, _ *seismograph.Seismograph, _ bool) error {
	return nil
}

func inspectionResponsible() masterdata.Employee {
	return masterdata.Employee{
		ID:      "emp-1",
		Name:    "Juan",
		Surname: "Pérez",
		Email:   "juan.perez@example.com",
		Role:    masterdata.RoleInspectionResponsible,
	}
}

func eligibleOrders() []inspection.Order {
	return []inspection.Order{{
		Number:      1,
		EmittedAt:   time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2023, 12, 20, 17, 0, 0, 0, time.UTC),
		Status:      inspection.StatusCompletelyPerformed,
		StationCode: "station-1",
		Responsible: inspectionResponsible(),
	}}
}

func handlerDevice(t *testing.T) *seismograph.Seismograph {
	t.Helper()
	device, err := seismograph.New("seis-1", "SN-001", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), "station-1", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new seismograph: %v", err)
	}
	return device
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	orders := stubOrders{orders: eligibleOrders()}
	devices := stubDevices{device: handlerDevice(t)}
	manager, err := inspectionapp.NewManager(orders, devices, noopPersister{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	employees := stubEmployees{employees: map[string]*masterdata.Employee{
		"emp-1": {ID: "emp-1", Name: "Juan", Surname: "Pérez", Email: "juan.perez@example.com", Role: masterdata.RoleInspectionResponsible},
		"emp-9": {ID: "emp-9", Name: "Ana", Surname: "García", Role: masterdata.RoleInspectionResponsible},
	}}
	handler, err := NewHandler(manager, employees, stubReasonTypes{}, stubStatusCodes{}, orders, devices)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func doRequest(handler *Handler, method, path, body, employeeID string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if employeeID != "" {
		ctx := auth.WithIdentity(req.Context(), employeeID, auth.RoleInspectionResponsible, employeeID)
		req = req.WithContext(ctx)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestCloseWorkflow(t *testing.T) {
	handler := newTestHandler(t)

	resp := doRequest(handler, http.MethodPost, "/api/v1/inspection/close", "", "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("open session: %d %s", resp.Code, resp.Body.String())
	}
	var opened sessionView
	if err := json.Unmarshal(resp.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	if opened.SessionID == "" {
		t.Fatal("missing session id")
	}
	if len(opened.Eligible) != 1 || opened.Eligible[0].Number != 1 {
		t.Fatalf("eligible orders = %+v", opened.Eligible)
	}

	base := "/api/v1/inspection/close/" + opened.SessionID

	resp = doRequest(handler, http.MethodPost, base+"/order", `{"number":1}`, "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("select order: %d %s", resp.Code, resp.Body.String())
	}
	resp = doRequest(handler, http.MethodPost, base+"/observation", `{"observation":"all checked"}`, "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("observation: %d %s", resp.Code, resp.Body.String())
	}
	resp = doRequest(handler, http.MethodPost, base+"/reasons", `{"reasons":[{"type_id":"sensor-damaged","comment":"cracked case"}]}`, "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("reasons: %d %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(handler, http.MethodPost, base+"/confirm", "", "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", resp.Code, resp.Body.String())
	}
	var closure closureView
	if err := json.Unmarshal(resp.Body.Bytes(), &closure); err != nil {
		t.Fatalf("decode closure: %v", err)
	}
	if closure.Order.Status != string(inspection.StatusClosed) {
		t.Fatalf("order status = %q", closure.Order.Status)
	}
	if closure.DeviceStatus != string(seismograph.StatusOutOfService) {
		t.Fatalf("device status = %q", closure.DeviceStatus)
	}
	if !closure.StatusChanged {
		t.Fatal("expected a status change")
	}

	// The session is released after confirmation.
	resp = doRequest(handler, http.MethodPost, base+"/cancel", "", "emp-1")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("released session should be gone, got %d", resp.Code)
	}
}

func TestCloseWorkflowUnknownReasonType(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodPost, "/api/v1/inspection/close", "", "emp-1")
	var opened sessionView
	if err := json.Unmarshal(resp.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	base := "/api/v1/inspection/close/" + opened.SessionID
	doRequest(handler, http.MethodPost, base+"/order", `{"number":1}`, "emp-1")
	doRequest(handler, http.MethodPost, base+"/observation", `{"observation":"ok"}`, "emp-1")

	resp = doRequest(handler, http.MethodPost, base+"/reasons", `{"reasons":[{"type_id":"flooding"}]}`, "emp-1")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown reason type, got %d", resp.Code)
	}
}

func TestCloseWorkflowStepConflict(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodPost, "/api/v1/inspection/close", "", "emp-1")
	var opened sessionView
	if err := json.Unmarshal(resp.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	base := "/api/v1/inspection/close/" + opened.SessionID

	resp = doRequest(handler, http.MethodPost, base+"/confirm", "", "emp-1")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for confirm from idle, got %d", resp.Code)
	}
}

func TestCloseWorkflowForeignSession(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodPost, "/api/v1/inspection/close", "", "emp-1")
	var opened sessionView
	if err := json.Unmarshal(resp.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}

	resp = doRequest(handler, http.MethodPost, "/api/v1/inspection/close/"+opened.SessionID+"/order", `{"number":1}`, "emp-9")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another employee's session, got %d", resp.Code)
	}
}

func TestCloseRequiresIdentity(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodPost, "/api/v1/inspection/close", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
}

func TestReasonTypeCatalog(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodGet, "/api/v1/reason-types", "", "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("reason types: %d", resp.Code)
	}
	var types []map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != 2 || types[0]["id"] != "sensor-damaged" {
		t.Fatalf("unexpected catalog: %+v", types)
	}
}

func TestStatusCodeCatalog(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodGet, "/api/v1/status-codes", "", "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("status codes: %d", resp.Code)
	}
	var codes []map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &codes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(codes) != 3 || codes[2]["display_name"] != "Closed" {
		t.Fatalf("unexpected catalog: %+v", codes)
	}
}

func TestOrderReport(t *testing.T) {
	handler := newTestHandler(t)
	resp := doRequest(handler, http.MethodGet, "/api/v1/inspection/orders/1/report?format=pdf", "", "emp-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("report: %d %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}

	resp = doRequest(handler, http.MethodGet, "/api/v1/inspection/orders/99/report", "", "emp-1")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown order, got %d", resp.Code)
	}
}
