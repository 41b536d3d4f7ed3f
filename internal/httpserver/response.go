package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"photoshare/backend/internal/apperror"
)

var errBodyTooLarge = apperror.New(apperror.BadInput, "Request body is too large")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// fail renders err through the reporter. It is the only error writer.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	reply := s.reporter.Report(r.Context(), err)
	writeJSON(w, reply.Status, reply)
}

// decode reads the request body and checks it against dst's schema.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return err
	}
	return s.validator.Decode(body, dst)
}
