// Package server exposes the download, proxy and contact endpoints over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"igdownloader/pkg/archive"
	"igdownloader/pkg/config"
	"igdownloader/pkg/extractor"
	"igdownloader/pkg/logger"
	"igdownloader/pkg/mailer"
	"igdownloader/pkg/relay"
)

// Server wires the extraction, bundling, relay and contact services into an
// HTTP surface
type Server struct {
	cfg       *config.Config
	extractor *extractor.Service
	archiver  *archive.Builder
	relay     *relay.Relay
	mailer    *mailer.Mailer
	logger    logger.Logger
	httpSrv   *http.Server
	now       func() time.Time
}

// New creates a Server from its collaborators
func New(cfg *config.Config, ext *extractor.Service, arch *archive.Builder, rel *relay.Relay, mail *mailer.Mailer, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Server{
		cfg:       cfg,
		extractor: ext,
		archiver:  arch,
		relay:     rel,
		mailer:    mail,
		logger:    log,
		now:       time.Now,
	}

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      withObservability(log, s.routes()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// routes builds the request mux
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/download", s.handleExtract)
	mux.HandleFunc("PUT /api/download", s.handleBundle)
	mux.HandleFunc("GET /api/proxy", s.handleProxyGet)
	mux.HandleFunc("POST /api/proxy", s.handleProxyPost)
	mux.HandleFunc("POST /api/contact", s.handleContact)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// ListenAndServe starts the HTTP listener and blocks until it stops
func (s *Server) ListenAndServe() error {
	s.logger.InfoWithFields("starting http server", map[string]interface{}{
		"addr": s.cfg.Server.Addr,
	})
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests within the configured timeout
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.httpSrv.Shutdown(shutdownCtx)
}
