// Package api exposes an editor session over HTTP and websockets.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/editor"
)

// Options configures the HTTP surface.
type Options struct {
	// CORSOrigin is the allowed browser origin. Empty allows none.
	CORSOrigin string
	// JWTSecret enables HS256 bearer auth when set.
	JWTSecret string
}

// Server routes requests to one editor session.
type Server struct {
	editor *editor.Editor
	hub    *Hub
	opts   Options
	log    *zap.Logger
	router *mux.Router
}

// NewServer builds the router. Run must be called for websocket clients to
// be tracked.
func NewServer(ed *editor.Editor, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		editor: ed,
		hub:    NewHub(log.Named("hub")),
		opts:   opts,
		log:    log,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	auth := Auth([]byte(s.opts.JWTSecret), s.log)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth)

	api.HandleFunc("/schema", s.getSchema).Methods(http.MethodGet)
	api.HandleFunc("/scene", s.getScene).Methods(http.MethodGet)
	api.HandleFunc("/scene", s.putScene).Methods(http.MethodPut)
	api.HandleFunc("/scene/{collection}", s.addListItem).Methods(http.MethodPost)
	api.HandleFunc("/scene/{collection}/{id:[0-9]+}", s.removeListItem).Methods(http.MethodDelete)
	api.HandleFunc("/bind", s.getBinding).Methods(http.MethodGet)
	api.HandleFunc("/bind", s.setBinding).Methods(http.MethodPut)
	api.HandleFunc("/actions/{id}", s.invokeAction).Methods(http.MethodPost)
	api.HandleFunc("/kernel", s.getKernel).Methods(http.MethodGet)
	api.HandleFunc("/output", s.getOutput).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.getNotifications).Methods(http.MethodGet)
	api.HandleFunc("/library", s.listLibrary).Methods(http.MethodGet)
	api.HandleFunc("/library/{name}", s.getLibrary).Methods(http.MethodGet)
	api.HandleFunc("/library/{name}", s.putLibrary).Methods(http.MethodPut)

	ws := s.router.PathPrefix("/ws").Subrouter()
	ws.Use(auth)
	ws.HandleFunc("/bind", s.serveBind)
}

// Handler returns the root handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	return CORS(s.opts.CORSOrigin)(RequestLogger(s.log)(s.router))
}

// Hub returns the websocket client registry.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves the hub until ctx ends.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}
