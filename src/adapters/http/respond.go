package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"stockgraph/src/domain"
)

// Envelope de resposta: sucesso carrega data (e opcionalmente message e
// results); erro carrega message e details. O status HTTP segue a taxonomia
// de erros do domínio.

type successEnvelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Results any    `json:"results,omitempty"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (s *Server) respondSuccess(w http.ResponseWriter, statusCode int, data any) {
	s.writeJSON(w, statusCode, successEnvelope{Status: "success", Data: data})
}

func (s *Server) respondMessage(w http.ResponseWriter, statusCode int, data any, message string) {
	s.writeJSON(w, statusCode, successEnvelope{Status: "success", Data: data, Message: message})
}

func (s *Server) respondResults(w http.ResponseWriter, statusCode int, results any, message string) {
	s.writeJSON(w, statusCode, successEnvelope{Status: "success", Results: results, Message: message})
}

// respondError loga com a tag da operação e mapeia o erro para o status
// HTTP. Erro fora da taxonomia vira Internal com a mensagem padrão.
func (s *Server) respondError(w http.ResponseWriter, operation string, err error) {
	s.logger.Error("Request failed", "operation", operation, "error", err)

	if !domain.InTaxonomy(err) {
		s.respondErrorStatus(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to %s: %v", operation, err), nil)
		return
	}

	s.respondErrorStatus(w, statusForError(err), err.Error(), nil)
}

func (s *Server) respondErrorStatus(w http.ResponseWriter, statusCode int, message string, details any) {
	s.writeJSON(w, statusCode, errorEnvelope{Status: "error", Message: message, Details: details})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody lê o corpo JSON do request; corpo vazio é permitido quando
// allowEmpty for true.
func decodeBody(r *http.Request, into any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(into)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return domain.Validationf("invalid JSON payload: %v", err)
}
