package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/output"
	"github.com/sprite-ai/devpulse/internal/report"
	"github.com/sprite-ai/devpulse/internal/view"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Normalize ---

type normalizeResponse struct {
	output.Document
	Page view.Page `json:"page"`
}

// handleNormalize accepts a raw service payload and answers with the canonical report, its
// classifications and the section view models.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		s.writeError(w, r, http.StatusBadRequest, "empty request body")
		return
	}
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		s.writeError(w, r, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	if len(body) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "payload is required")
		return
	}

	rep, err := report.Normalize(body)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, normalizeResponse{
		Document: output.NewDocument(rep),
		Page:     view.NewPageWith(s.sanitizer, rep),
	})
}

// --- Render ---

type renderRequest struct {
	Text string `json:"text"`
}

type renderResponse struct {
	Tree        *markdown.Node `json:"tree"`
	HTML        string         `json:"html"`
	Words       int            `json:"words"`
	Collapsible bool           `json:"collapsible"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	n := s.sanitizer.Narrative(req.Text)
	s.writeJSON(w, http.StatusOK, renderResponse{
		Tree:        n.Doc,
		HTML:        markdown.HTML(n.Doc),
		Words:       n.Words,
		Collapsible: n.Collapsible,
	})
}
