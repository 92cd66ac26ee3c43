package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"masumi-rag-agent/internal/config"
	"masumi-rag-agent/internal/usecase"
)

// Server exposes the MIP-003 style agent API: job submission and status plus
// the document upload and discovery endpoints.
type Server struct {
	jobUC    usecase.JobUseCase
	ingestUC usecase.IngestUseCase
	payCfg   config.PaymentConfig
	log      *zerolog.Logger
}

func NewServer(
	jobUC usecase.JobUseCase,
	ingestUC usecase.IngestUseCase,
	payCfg config.PaymentConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		jobUC:    jobUC,
		ingestUC: ingestUC,
		payCfg:   payCfg,
		log:      logger,
	}
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/start_job", s.startJobHandler())
	r.Get("/status", s.statusHandler())
	r.Post("/upload-pdf", s.uploadHandler())

	r.Get("/availability", s.availabilityHandler())
	r.Get("/health", s.healthHandler())
	r.Get("/input_schema", s.inputSchemaHandler())

	r.Handle("/metrics", promhttp.Handler())
	return r
}
