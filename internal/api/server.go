package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
	"github.com/anki-boi/PDF-to-MD/internal/config"
	"github.com/anki-boi/PDF-to-MD/internal/metrics"
	"github.com/anki-boi/PDF-to-MD/internal/pipeline"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Server is the HTTP front end for the converter.
type Server struct {
	router    chi.Router
	converter *pipeline.Converter
	stats     *cleanup.LLMStats
	metrics   *metrics.Metrics
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server. stats and m may be nil.
func NewServer(conv *pipeline.Converter, stats *cleanup.LLMStats, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		converter: conv,
		stats:     stats,
		metrics:   m,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(MetricsMiddleware(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/api/stats/llm", s.handleLLMStats)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Conversion, authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Post("/process", s.handleProcess)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type indexData struct {
	DeckName        string
	OCRLang         string
	MinCharsPerPage int
	Model           string
	Endpoint        string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTmpl.Execute(w, indexData{
		DeckName:        s.cfg.DeckName,
		OCRLang:         s.cfg.OCRLang,
		MinCharsPerPage: s.cfg.MinCharsPerPage,
		Model:           s.cfg.CleanupModel,
		Endpoint:        s.cfg.CleanupEndpoint,
	})
	if err != nil {
		s.log.Error("render index", "error", err)
	}
}
