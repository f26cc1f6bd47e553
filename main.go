package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seismic-network/internal/audit"
	"seismic-network/internal/auth"
	inspectionapp "seismic-network/internal/inspection/application"
	inspectionrepo "seismic-network/internal/inspection/infrastructure/postgres"
	inspectionhttp "seismic-network/internal/inspection/interfaces/http"
	inspectionnotify "seismic-network/internal/inspection/notify"
	masterdatarepo "seismic-network/internal/masterdata/infrastructure/postgres"
	"seismic-network/internal/observability/metrics"
	seismographapp "seismic-network/internal/seismograph/application"
	seismographrepo "seismic-network/internal/seismograph/infrastructure/postgres"
	seismographhttp "seismic-network/internal/seismograph/interfaces/http"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()
	auditRepo := audit.NewRepository(db)

	employeeRepo := masterdatarepo.NewEmployeeRepository(db)
	stationRepo := masterdatarepo.NewStationRepository(db)
	reasonTypeRepo := masterdatarepo.NewReasonTypeRepository(db)
	statusCodeRepo := inspectionrepo.NewStatusCodeRepository(db)
	orderRepo := inspectionrepo.NewOrderRepository(db)
	deviceRepo := seismographrepo.NewRepository(db)
	closureStore := inspectionrepo.NewClosureStore(db)
	transitionStore := seismographrepo.NewTransitionStore(db)

	var mailChannel inspectionnotify.MailChannel
	if cfg.SMTPAddr != "" {
		mailChannel, err = inspectionnotify.NewSMTPChannel(cfg.SMTPAddr, cfg.SMTPFrom)
		if err != nil {
			logger.Fatalf("smtp channel error: %v", err)
		}
	}
	var dashboardChannel inspectionnotify.Channel
	if cfg.DashboardWebhookURL != "" {
		dashboardChannel, err = inspectionnotify.NewWebhookChannel(cfg.DashboardWebhookURL)
		if err != nil {
			logger.Fatalf("dashboard webhook error: %v", err)
		}
	}
	notifier, err := inspectionnotify.NewNotifier(employeeRepo, stationRepo, mailChannel, dashboardChannel, inspectionnotify.WithLogger(logger))
	if err != nil {
		logger.Fatalf("notifier error: %v", err)
	}

	sessionManager, err := inspectionapp.NewManager(orderRepo, deviceRepo, closureStore,
		inspectionapp.WithNotifier(notifier),
		inspectionapp.WithAuditLogger(auditRepo),
		inspectionapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("session manager error: %v", err)
	}
	inspectionHandler, err := inspectionhttp.NewHandler(sessionManager, employeeRepo, reasonTypeRepo, statusCodeRepo, orderRepo, deviceRepo)
	if err != nil {
		logger.Fatalf("inspection handler error: %v", err)
	}

	deviceService, err := seismographapp.NewService(deviceRepo, transitionStore, seismographapp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("seismograph service error: %v", err)
	}
	deviceHandler, err := seismographhttp.NewHandler(deviceService)
	if err != nil {
		logger.Fatalf("seismograph handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/inspection/close", inspectionHandler)
	mux.Handle("/api/v1/inspection/close/", inspectionHandler)
	mux.Handle("/api/v1/inspection/orders/", inspectionHandler)
	mux.Handle("/api/v1/reason-types", inspectionHandler)
	mux.Handle("/api/v1/status-codes", inspectionHandler)
	mux.Handle("/api/v1/seismographs/", deviceHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL         string
	HTTPAddr            string
	JWTSecret           string
	SMTPAddr            string
	SMTPFrom            string
	DashboardWebhookURL string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:         getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SMTPAddr:            getenvDefault("SMTP_ADDR", ""),
		SMTPFrom:            getenvDefault("SMTP_FROM", "noreply@seismic-network.local"),
		DashboardWebhookURL: getenvDefault("DASHBOARD_WEBHOOK_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
