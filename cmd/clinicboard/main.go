package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicboard/internal/api"
	"clinicboard/internal/core"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Debugf(format string, args ...any) { s.l.Printf("DEBUG "+format, args...) }
func (s stdLogger) Infof(format string, args ...any)  { s.l.Printf("INFO "+format, args...) }
func (s stdLogger) Warnf(format string, args ...any)  { s.l.Printf("WARN "+format, args...) }
func (s stdLogger) Errorf(format string, args ...any) { s.l.Printf("ERROR "+format, args...) }

func main() {
	logger := log.New(os.Stderr, "clinicboard ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := core.OpenPersistentStore(ctx, core.NewDefaultRulesEngine())
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	opts := []core.ServiceOption{core.WithLogger(stdLogger{l: logger})}

	metrics, err := core.NewPrometheusMetricsRecorder(nil)
	if err != nil {
		logger.Fatalf("register metrics: %v", err)
	}
	opts = append(opts, core.WithMetricsRecorder(metrics))

	if path := os.Getenv("CLINICBOARD_TRACE_LOG"); path != "" {
		sink, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Fatalf("open trace log: %v", err)
		}
		defer func() { _ = sink.Close() }()
		opts = append(opts, core.WithTracer(core.NewJSONTracer(sink)))
	}

	svc := core.NewService(store, opts...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api.NewRouter(svc))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on :%s", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server failed: %v", err)
	}
}
