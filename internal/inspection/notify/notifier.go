package notify

import (
	"context"
	"errors"
	"log"
	"time"

	inspectionapp "seismic-network/internal/inspection/application"
	masterdata "seismic-network/internal/masterdata/domain"
	"seismic-network/internal/observability/metrics"
)

// EmployeeReader lists employees holding a role.
type EmployeeReader interface {
	ListByRole(ctx context.Context, role string) ([]masterdata.Employee, error)
}

// StationReader loads station metadata.
type StationReader interface {
	Get(ctx context.Context, code string) (*masterdata.Station, error)
}

// Notifier renders repair events and delivers them to the repair
// responsibles by mail and to the control-room dashboard. Delivery is
// fire-and-forget: failures are logged and never surfaced to the workflow.
type Notifier struct {
	employees EmployeeReader
	stations  StationReader
	mail      MailChannel
	dashboard Channel
	template  *Template
	logger    *log.Logger
}

// Option configures the notifier.
type Option func(*Notifier)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithTemplate overrides the default template.
func WithTemplate(template *Template) Option {
	return func(n *Notifier) {
		if template != nil {
			n.template = template
		}
	}
}

// NewNotifier constructs a repair notifier. Either channel may be nil, in
// which case that delivery path is skipped.
func NewNotifier(employees EmployeeReader, stations StationReader, mail MailChannel, dashboard Channel, opts ...Option) (*Notifier, error) {
	if employees == nil {
		return nil, errors.New("repair notifier: nil employee reader")
	}
	template, err := NewTemplate("")
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		employees: employees,
		stations:  stations,
		mail:      mail,
		dashboard: dashboard,
		template:  template,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NotifyRepair renders the event and fans it out to both delivery paths.
func (n *Notifier) NotifyRepair(ctx context.Context, event inspectionapp.RepairEvent) {
	if n == nil {
		return
	}
	content, err := n.template.Render(n.buildData(ctx, event))
	if err != nil {
		n.logger.Printf("repair notifier: render error: %v", err)
		return
	}

	if n.mail != nil {
		recipients := n.repairRecipients(ctx)
		if len(recipients) > 0 {
			if err := n.mail.Send(ctx, content, recipients); err != nil {
				n.logger.Printf("repair notifier: mail error: %v", err)
				metrics.ObserveNotification("mail", metrics.ResultError)
			} else {
				metrics.ObserveNotification("mail", metrics.ResultSuccess)
			}
		}
	}
	if n.dashboard != nil {
		if err := n.dashboard.Send(ctx, content); err != nil {
			n.logger.Printf("repair notifier: dashboard error: %v", err)
			metrics.ObserveNotification("dashboard", metrics.ResultError)
		} else {
			metrics.ObserveNotification("dashboard", metrics.ResultSuccess)
		}
	}
}

func (n *Notifier) buildData(ctx context.Context, event inspectionapp.RepairEvent) TemplateData {
	stationName := event.StationCode
	if n.stations != nil {
		station, err := n.stations.Get(ctx, event.StationCode)
		if err == nil && station != nil && station.Name != "" {
			stationName = station.Name
		}
	}
	reasons := make([]ReasonLine, len(event.Reasons))
	for i, reason := range event.Reasons {
		reasons[i] = ReasonLine{
			Description: reason.Type.Description,
			Comment:     reason.Comment,
		}
	}
	return TemplateData{
		SeismographID: event.SeismographID,
		Station:       stationName,
		NewStatus:     event.NewStatus,
		RegisteredAt:  event.RegisteredAt.UTC().Format(time.RFC3339),
		ClosedBy:      event.ClosedBy,
		Reasons:       reasons,
	}
}

func (n *Notifier) repairRecipients(ctx context.Context) []string {
	employees, err := n.employees.ListByRole(ctx, masterdata.RoleRepairResponsible)
	if err != nil {
		n.logger.Printf("repair notifier: list recipients error: %v", err)
		return nil
	}
	var recipients []string
	for _, employee := range employees {
		if employee.Email != "" {
			recipients = append(recipients, employee.Email)
		}
	}
	return recipients
}
