// Package server is the HTTP/JSON backend the chat client talks to.
package server

import (
	"chat-sync/services"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type Server struct {
	accounts services.IAccountService
	chat     services.IChatService
	log      *slog.Logger
}

func NewServer(accounts services.IAccountService, chat services.IChatService, log *slog.Logger) *Server {
	return &Server{accounts: accounts, chat: chat, log: log}
}

// Router wires the public and the bearer protected routes.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authenticate)
	protected.HandleFunc("/profile", s.profile).Methods(http.MethodGet)
	protected.HandleFunc("/messages", s.listMessages).Methods(http.MethodGet)
	protected.HandleFunc("/messages", s.postMessage).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.", nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.", nil)
	})
	return router
}
