package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tomdro61/shop-pilot-sub000/logging"
	"github.com/tomdro61/shop-pilot-sub000/services"

	"github.com/gorilla/mux"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps a service error onto an HTTP status.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidTransition):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromContext(r.Context()).Error(fallback, "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}
