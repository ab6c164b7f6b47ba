package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cbodonnell/reactions/pkg/api/handlers"
	"github.com/cbodonnell/reactions/pkg/api/middleware"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/gorilla/mux"
)

// APIServer exposes the client runtime to a local view layer.
type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Addr    string
	TLS     *TLSConfig
	Runtime handlers.Runtime
}

// NewAPIServer creates a new http.Server for the control API
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	return &APIServer{
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: NewRouter(opts.Runtime),
		},
		tls: opts.TLS,
	}
}

// NewRouter returns the handler serving the control API routes.
func NewRouter(runtime handlers.Runtime) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recover, middleware.Logging, middleware.CORS)

	r.HandleFunc("/healthz", handlers.HandleHealth()).Methods(http.MethodGet)
	r.HandleFunc("/state", handlers.HandleGetState(runtime)).Methods(http.MethodGet)
	r.HandleFunc("/app-state", handlers.HandleSetAppState(runtime)).Methods(http.MethodPut)
	r.HandleFunc("/actions/{action}", handlers.HandlePostAction(runtime)).Methods(http.MethodPost)
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// Start starts the APIServer and blocks until it is stopped
func (s *APIServer) Start() error {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return nil
		}
		return err
	}
	return nil
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
