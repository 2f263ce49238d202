package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"lattesdoc/renderer"
	"lattesdoc/store"
)

// Config holds server configuration
type Config struct {
	Host             string
	Port             int
	EnableLiveReload bool
	// WatchDir is watched for changed documents when live reload is
	// enabled. Empty disables live reload.
	WatchDir string
	// ExportPrefixes maps a document kind to its raw download prefix.
	ExportPrefixes map[store.Kind]string
}

// Server serves stored documents as HTML pages, JSON and downloads.
type Server struct {
	config     Config
	store      store.Store
	engine     renderer.Engine
	mux        *http.ServeMux
	httpServer *http.Server
	liveReload *LiveReload
}

// NewServer creates a new server instance
func NewServer(config Config, st store.Store, engine renderer.Engine) *Server {
	s := &Server{
		config: config,
		store:  st,
		engine: engine,
		mux:    http.NewServeMux(),
	}

	if config.EnableLiveReload && config.WatchDir != "" {
		var err error
		s.liveReload, err = NewLiveReload(config.WatchDir)
		if err != nil {
			log.Printf("Failed to initialize LiveReload: %v", err)
		} else if err := s.liveReload.Start(); err != nil {
			log.Printf("Failed to start LiveReload: %v", err)
			s.liveReload = nil
		}
	}

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves HTTP until Stop is called.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down and cleans up resources
func (s *Server) Stop(ctx context.Context) error {
	if s.liveReload != nil {
		s.liveReload.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /assets/style.css", s.handleCSS)
	if s.liveReload != nil {
		s.mux.HandleFunc("GET /livereload", s.liveReload.HandleWebSocket)
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /view/{kind}/{id}", s.handleView)
	s.mux.HandleFunc("GET /download/{kind}/{id}", s.handleDownload)
	s.mux.HandleFunc("GET /api/view/{kind}/{id}", s.handleAPIView)
	s.mux.HandleFunc("POST /api/render", s.handleAPIRender)
}
