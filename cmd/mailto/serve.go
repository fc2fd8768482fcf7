// serve.go implements the HTTP API: upload a message container, get
// the decoded record back as JSON.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ekayaprod/mailto/config"
	"github.com/ekayaprod/mailto/message"
)

// cmdServe starts the HTTP server. Settings come from the defaults, an
// optional --config file, MAILTO_* environment variables, and a bare
// listen-address argument, in that order.
func cmdServe(args []string) {
	configPath := ""
	listen := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++
		} else {
			listen = args[i]
		}
	}

	cfg := config.Load()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if listen != "" {
		if !strings.Contains(listen, ":") {
			listen = ":" + listen
		}
		cfg.Serve.Listen = listen
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	httpSrv := &http.Server{
		Addr:              cfg.Serve.Listen,
		Handler:           newServer(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Serve.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("shutdown http", "error", err)
	}
}

// server handles the HTTP API routes.
type server struct {
	cfg    *config.Config
	logger *slog.Logger
	mux    *http.ServeMux
}

func newServer(cfg *config.Config, logger *slog.Logger) *server {
	s := &server{cfg: cfg, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/decode", s.handleDecode)
	mux.HandleFunc("/api/info", s.handleInfo)
	s.mux = mux
	return s
}

// ServeHTTP tags every request with an id and logs it after completion.
func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Info("request",
		"id", uuid.NewString(),
		"method", r.Method,
		"path", r.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"name":    "mailto",
		"version": version,
	})
}

// handleDecode accepts a message container as a multipart upload or a
// raw request body and responds with the decoded record.
func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Serve.MaxUploadBytes)

	data, err := uploadData(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty upload", http.StatusBadRequest)
		return
	}
	rec := message.DecodeWithOptions(data, s.cfg.Options())
	s.respondJSON(w, http.StatusOK, rec)
}

// uploadData reads the uploaded file from a multipart form field named
// "file", falling back to the raw request body.
func uploadData(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("reading upload: %w", err)
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}

func (s *server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
