package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"checkup-kiosk/internal/model"
	"checkup-kiosk/internal/stage"

	"github.com/gorilla/mux"
)

type stageRequest struct {
	Stage string `json:"stage"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, st)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	to, ok := stage.Parse(req.Stage)
	if !ok {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", req.Stage))
		return
	}
	if err := s.session.Navigate(to); err != nil {
		writeError(w, err)
		return
	}
	s.getSession(w, r)
}

func (s *Server) getStages(w http.ResponseWriter, r *http.Request) {
	path, err := stage.ScanPath()
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, path)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, st.Profile)
}

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	var p model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.session.UpdateProfile(p); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

func (s *Server) getScores(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, model.Summary())
}

// requestAdvice answers before the advisory note arrives; poll /api/session for it.
func (s *Server) requestAdvice(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RequestAdvice(); err != nil {
		writeError(w, err)
		return
	}
	st, err := s.session.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusAccepted, st)
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.contacts.List())
}

func (s *Server) addContact(w http.ResponseWriter, r *http.Request) {
	var c model.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	jsonResponse(w, http.StatusCreated, s.contacts.Add(c))
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok := s.contacts.Get(id)
	if !ok {
		writeError(w, fmt.Errorf("contact %s: %w", id, errNotFound))
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	var c model.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c.ID = mux.Vars(r)["id"]
	if !s.contacts.Update(c) {
		writeError(w, fmt.Errorf("contact %s: %w", c.ID, errNotFound))
		return
	}
	stored, _ := s.contacts.Get(c.ID)
	jsonResponse(w, http.StatusOK, stored)
}

// deleteContact succeeds whether or not the id existed.
func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	s.contacts.Remove(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}
