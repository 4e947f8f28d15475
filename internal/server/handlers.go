package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/export"
)

type validateRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be {\"token\": \"...\"}")
		return
	}
	cfg, err := s.client.ValidateToken(r.Context(), req.Token)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	transcripts, err := s.client.FetchTranscripts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if transcripts == nil {
		transcripts = []internal.Transcript{}
	}
	writeJSON(w, http.StatusOK, transcripts)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.client.FetchTranscriptLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if logs == nil {
		logs = []internal.LogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

var contentTypes = map[string]string{
	"csv":   "text/csv; charset=utf-8",
	"json":  "application/json",
	"jsonl": "application/x-ndjson",
	"yaml":  "application/yaml",
	"md":    "text/markdown; charset=utf-8",
}

// handleExport renders a transcript as a downloadable file. ?format=
// selects the exporter, csv by default.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := s.client.FetchTranscriptLogs(r.Context(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(&internal.TranscriptExport{TranscriptID: id, Logs: logs}, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, (&internal.ExportError{Format: exporter.Extension(), Err: err}).Error())
		return
	}

	w.Header().Set("Content-Type", contentTypes[exporter.Extension()])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(id, exporter.Extension())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.client.FetchDashboardMetrics(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
