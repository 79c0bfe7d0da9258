package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/prefs"
	"github.com/pointy-labs/pointy/internal/registry"
)

// maxBodySize caps request bodies; only preferences and orderings are sent.
const maxBodySize = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ToggleResponse reports an extension's state after a toggle.
type ToggleResponse struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// OrderRequest is the body of PUT /api/extensions/order.
type OrderRequest struct {
	Ordered []string `json:"ordered"`
}

// InstallResponse reports the version an install put on disk.
type InstallResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var ext *apperr.ExtensionError
	switch {
	case errors.As(err, &ext):
		return http.StatusInternalServerError
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	}
	switch apperr.KindOf(err) {
	case apperr.KindChecksum, apperr.KindNoAssets:
		return http.StatusUnprocessableEntity
	case apperr.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: apperr.Message(err), Kind: apperr.KindOf(err).String()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Kind:  apperr.KindSerialization.String(),
		})
		return false
	}
	return true
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		infos, err := s.launcher.SearchInstalled(q)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, infos)
		return
	}
	infos, err := s.launcher.List()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) activeHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := s.launcher.Active()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) onlineHandler(w http.ResponseWriter, r *http.Request) {
	matches, err := s.launcher.SearchOnline(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) installHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	release, err := s.launcher.Install(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InstallResponse{ID: id, Version: release.Version.String()})
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.launcher.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	enabled, err := s.launcher.Toggle(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{ID: id, Enabled: enabled})
}

func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.launcher.Run(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) iconHandler(w http.ResponseWriter, r *http.Request) {
	icon, err := s.launcher.ReadIcon(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(icon))
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	run := s.launcher.UpdateAll
	if r.URL.Query().Get("check") == "true" {
		run = s.launcher.CheckUpdates
	}
	report, err := run(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) orderHandler(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.launcher.SetOrder(r.Context(), req.Ordered); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.launcher.Preferences()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if !s.decode(w, r, &p) {
		return
	}
	saved, err := s.launcher.UpdatePreferences(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.launcher.Version())
}
