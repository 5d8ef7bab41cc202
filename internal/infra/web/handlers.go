package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
)

const maxUploadBytes = 20 << 20

type apiError struct {
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, apiError{Message: msg})
}

type uploadResp struct {
	JobID string `json:"job_id"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	modeStr := r.FormValue("scan_mode")
	if modeStr != "" && modeStr != string(model.ScanModeFast) && modeStr != string(model.ScanModeDeep) {
		s.writeError(w, http.StatusBadRequest, "invalid scan mode")
		return
	}
	mode := model.ParseScanMode(modeStr)
	if mode == model.ScanModeDeep && !s.deepEnabled {
		s.writeError(w, http.StatusServiceUnavailable, domain.DeepScanUnavailableMsg)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		s.writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to store upload")
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	jobID := s.scanUC.Submit(r.Context(), path, mode)
	s.writeJSON(w, http.StatusOK, uploadResp{JobID: jobID})
}

func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(s.uploadsDir, uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

type correctReq struct {
	MealID   string `json:"meal_id"`
	NewLabel string `json:"new_label"`
}

type correctResp struct {
	MealID         string           `json:"meal_id"`
	CorrectedLabel string           `json:"corrected_label"`
	Totals         model.Macros     `json:"totals"`
	Items          []model.FoodItem `json:"items"`
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	totals, items, err := s.mealUC.Correct(r.Context(), req.MealID, req.NewLabel)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			s.writeError(w, http.StatusBadRequest, "new_label must not be empty")
		case errors.Is(err, domain.ErrNotFound):
			s.writeError(w, http.StatusNotFound, "meal not found")
		default:
			s.log.Error().Err(err).Str("meal_id", req.MealID).Msg("correction failed")
			s.writeError(w, http.StatusInternalServerError, "correction failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, correctResp{
		MealID:         req.MealID,
		CorrectedLabel: req.NewLabel,
		Totals:         totals,
		Items:          items,
	})
}

type historyResp struct {
	Items []*model.MealRecord `json:"items"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	meals, err := s.mealUC.History(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list history")
		s.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if meals == nil {
		meals = []*model.MealRecord{}
	}
	s.writeJSON(w, http.StatusOK, historyResp{Items: meals})
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mealUC.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "meal not found")
			return
		}
		s.log.Error().Err(err).Str("meal_id", id).Msg("failed to delete meal")
		s.writeError(w, http.StatusInternalServerError, "failed to delete meal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.mealUC.Clear(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear history")
		s.writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
