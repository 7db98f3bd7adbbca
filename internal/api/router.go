// Package api exposes the kiosk session, the contact registry and the chat relay over HTTP.
package api

import (
	"io"
	"log"
	"net/http"

	"checkup-kiosk/internal/contacts"
	"checkup-kiosk/internal/kiosk"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type Server struct {
	session  *kiosk.Session
	contacts *contacts.Registry
	chat     http.Handler
	logger   *log.Logger
}

type Deps struct {
	Session  *kiosk.Session
	Contacts *contacts.Registry
	// Chat serves /api/chat; usually a *relay.Handler.
	Chat           http.Handler
	Logger         *log.Logger
	AllowedOrigins []string
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{session: d.Session, contacts: d.Contacts, chat: d.Chat, logger: logger}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods("GET")
	if s.chat != nil {
		// The relay answers non-POST methods itself.
		r.Handle("/api/chat", s.chat)
	}

	r.HandleFunc("/api/session", s.getSession).Methods("GET")
	r.HandleFunc("/api/session/stage", s.navigate).Methods("POST")
	r.HandleFunc("/api/stages", s.getStages).Methods("GET")
	r.HandleFunc("/api/profile", s.getProfile).Methods("GET")
	r.HandleFunc("/api/profile", s.putProfile).Methods("PUT")
	r.HandleFunc("/api/scores", s.getScores).Methods("GET")
	r.HandleFunc("/api/advice", s.requestAdvice).Methods("POST")

	r.HandleFunc("/api/contacts", s.listContacts).Methods("GET")
	r.HandleFunc("/api/contacts", s.addContact).Methods("POST")
	r.HandleFunc("/api/contacts/{id}", s.getContact).Methods("GET")
	r.HandleFunc("/api/contacts/{id}", s.updateContact).Methods("PUT")
	r.HandleFunc("/api/contacts/{id}", s.deleteContact).Methods("DELETE")

	return r
}

// NewHandler is the full HTTP stack: CORS, panic recovery and the access log around the router.
func NewHandler(d Deps) http.Handler {
	s := NewServer(d)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"*"},
	})

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger),
		handlers.PrintRecoveryStack(true),
	)
	return c.Handler(loggingMiddleware(s.logger)(recovery(s.Router())))
}
