package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/joescharf/bugtrack/internal/models"
	"github.com/joescharf/bugtrack/internal/validation"
)

func (s *Server) listBugs(w http.ResponseWriter, r *http.Request) {
	list, err := s.bugs.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createBug(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(w, r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	bug, err := s.bugs.Create(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/bugs/"+bug.ID.String())
	writeJSON(w, http.StatusCreated, bug)
}

func (s *Server) getBug(w http.ResponseWriter, r *http.Request) {
	bug, err := s.bugs.Get(r.Context(), models.BugID(r.PathValue("id")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

func (s *Server) updateBug(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(w, r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	bug, err := s.bugs.Update(r.Context(), models.BugID(r.PathValue("id")), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

func (s *Server) deleteBug(w http.ResponseWriter, r *http.Request) {
	if err := s.bugs.Delete(r.Context(), models.BugID(r.PathValue("id"))); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// readPayload reads at most maxBodyBytes of the body and parses it. Oversized or
// unreadable bodies count as invalid payloads.
func readPayload(w http.ResponseWriter, r *http.Request) (*models.Payload, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrInvalidPayload, err)
	}
	return validation.ParsePayload(data)
}
