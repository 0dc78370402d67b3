package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nao1215/schoolcrew/internal/model"
)

// maxBodyBytes bounds the POST /search-schools body.
const maxBodyBytes = 1 << 20

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "School Crew API is running!",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "school-crew-api",
	})
}

func (s *Server) handleCurricula(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"supported_curricula": model.SupportedCurricula,
	})
}

func (s *Server) handleGrades(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"supported_grades": model.SupportedGrades,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	req = req.WithDefaults()

	raw, err := s.search(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing school search: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, model.SearchResponse{
		Success: true,
		Message: "School search completed successfully",
		Data:    raw,
	})
}

func (s *Server) handleSimpleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.SearchRequest{
		Location:   r.PathValue("location"),
		Grade:      q.Get("grade"),
		Curriculum: q.Get("curriculum"),
	}.WithDefaults()

	raw, err := s.search(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing school search: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, model.SimpleSearchResponse{
		Success:    true,
		Location:   req.Location,
		Grade:      req.Grade,
		Curriculum: req.Curriculum,
		Results:    raw,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "Search history is disabled")
		return
	}

	limit := s.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit: %q", v))
			return
		}
		limit = n
	}

	records, err := s.history.Latest(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error reading search history: %v", err))
		return
	}
	if records == nil {
		records = []model.SearchRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": records})
}

// search runs one crew for req and records the result. A failed history
// write is logged and does not fail the search.
func (s *Server) search(ctx context.Context, req model.SearchRequest) (string, error) {
	c, err := s.newCrew()
	if err != nil {
		return "", err
	}
	result, err := c.Kickoff(ctx, req.Inputs())
	if err != nil {
		return "", err
	}

	if s.history != nil {
		rec := &model.SearchRecord{
			RunID:  result.RunID,
			Kind:   model.KindSchoolSearch,
			Inputs: req.Inputs(),
			Raw:    result.Raw,
		}
		if err := s.history.Save(ctx, rec); err != nil {
			s.logger.Warn("failed to save search history",
				"request_id", RequestID(ctx),
				"run_id", result.RunID,
				"error", err,
			)
		}
	}
	return result.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, model.ErrorResponse{Detail: detail})
}
