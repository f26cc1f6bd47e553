package application

import (
	"context"
	"errors"
	"testing"
	"time"

	masterdata "seismic-network/internal/masterdata/domain"
	seismograph "seismic-network/internal/seismograph/domain"
	"seismic-network/internal/seismograph/infrastructure/memory"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

type recordingPersister struct {
	err    error
	calls  int
	device *seismograph.Seismograph
}

func (p *recordingPersister) PersistTransition(_ context.Context, device *seismograph.Seismograph) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.device = device
	return nil
}

func seedRepo(t *testing.T, outOfService bool) *memory.Repository {
	t.Helper()
	device, err := seismograph.New("seis-1", "SN-001", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), "station-1", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new seismograph: %v", err)
	}
	if outOfService {
		reasons := []masterdata.Reason{
			{Type: masterdata.ReasonType{ID: "sensor-damaged", Description: "Sensor damaged"}},
		}
		if _, err := device.SendToRepair(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), reasons, "", "emp-1"); err != nil {
			t.Fatalf("send to repair: %v", err)
		}
	}
	repo := memory.NewRepository()
	if err := repo.Save(context.Background(), device); err != nil {
		t.Fatalf("save: %v", err)
	}
	return repo
}

func TestServiceGet(t *testing.T) {
	service, err := NewService(seedRepo(t, false), &recordingPersister{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	device, err := service.Get(context.Background(), "seis-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if device.Status != seismograph.StatusOnline {
		t.Fatalf("status = %s", device.Status)
	}

	if _, err := service.Get(context.Background(), "seis-missing"); !errors.Is(err, seismograph.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSetOnline(t *testing.T) {
	onlineAt := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	persister := &recordingPersister{}
	service, err := NewService(seedRepo(t, true), persister, WithClock(fakeClock{now: onlineAt}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	device, changed, err := service.SetOnline(context.Background(), "seis-1", "emp-2")
	if err != nil {
		t.Fatalf("set online: %v", err)
	}
	if !changed {
		t.Fatal("expected a status change")
	}
	if device.Status != seismograph.StatusOnline {
		t.Fatalf("status = %s", device.Status)
	}
	current, err := device.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Comment != seismograph.CommentRepairCompleted {
		t.Fatalf("comment = %q", current.Comment)
	}
	if !current.StartAt.Equal(onlineAt) {
		t.Fatalf("start = %v, want %v", current.StartAt, onlineAt)
	}
	if persister.calls != 1 {
		t.Fatalf("persist calls = %d, want 1", persister.calls)
	}
}

func TestServiceSetOnlineAlreadyOnline(t *testing.T) {
	persister := &recordingPersister{}
	service, err := NewService(seedRepo(t, false), persister)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	device, changed, err := service.SetOnline(context.Background(), "seis-1", "emp-2")
	if err != nil {
		t.Fatalf("set online: %v", err)
	}
	if changed {
		t.Fatal("expected no change for an online device")
	}
	if len(device.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(device.History))
	}
	if persister.calls != 0 {
		t.Fatal("an unchanged device must not be persisted")
	}
}

func TestServiceSetOnlinePersistFailure(t *testing.T) {
	repo := seedRepo(t, true)
	persister := &recordingPersister{err: errors.New("connection refused")}
	service, err := NewService(repo, persister)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, _, err := service.SetOnline(context.Background(), "seis-1", "emp-2"); err == nil {
		t.Fatal("expected persistence error")
	}

	stored, err := repo.Get(context.Background(), "seis-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != seismograph.StatusOutOfService {
		t.Fatalf("stored device mutated despite persist failure: %s", stored.Status)
	}
}
