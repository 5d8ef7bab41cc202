package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
)

const (
	ssePollInterval = 200 * time.Millisecond
	sseTimeout      = 150 * time.Second
)

// handleJobEvents streams job progress as server-sent events. The stream
// closes after the first terminal event or after the overall timeout.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if _, err := s.scanUC.Status(jobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to read job")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(ssePollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(sseTimeout)
	defer deadline.Stop()

	cursor := 0
	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			writeSSE(w, model.Event{Kind: model.EventError, Message: "Request timed out"})
			flusher.Flush()
			return
		case <-ticker.C:
			events, next, err := s.scanUC.Poll(jobID, cursor)
			if err != nil {
				// Swept while streaming; nothing more will arrive.
				writeSSE(w, model.Event{Kind: model.EventError, Message: "job expired"})
				flusher.Flush()
				return
			}
			cursor = next
			for _, ev := range events {
				writeSSE(w, ev)
				flusher.Flush()
				if ev.Terminal() {
					return
				}
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, ev model.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
