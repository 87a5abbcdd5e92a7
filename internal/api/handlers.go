package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Messages are fixed; details only go to the log.
const (
	msgNotFound = "Not Found"
	msgInternal = "Internal Server Error"
)

// errorResponse is the body of every JSON error.
type errorResponse struct {
	Error string `json:"error"`
}

// createFavoriteRequest uses pointers so a missing field can be told apart from "".
type createFavoriteRequest struct {
	BaseCurrency   *string `json:"baseCurrency"`
	TargetCurrency *string `json:"targetCurrency"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, errorResponse{Error: msg})
}

// favoritesHandler dispatches /api/favorites by method. Other methods fall
// through to the API 404.
func (s *Server) favoritesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listFavorites(w, r)
	case http.MethodPost:
		s.createFavorite(w, r)
	default:
		s.apiNotFoundHandler(w, r)
	}
}

// listFavorites returns all favorite pairs in insertion order.
func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.repo.List(r.Context())
	if err != nil {
		s.metrics.StorageErrorsTotal.WithLabelValues("list").Inc()
		requestLogger(r, s.logger).Error("Error fetching favorites", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := writeJSON(w, http.StatusOK, favs); err != nil {
		requestLogger(r, s.logger).Error("Failed to write favorites response", zap.Error(err))
	}
}

// createFavorite stores the posted pair and echoes the stored record.
// The body must be JSON; currency codes are not validated.
func (s *Server) createFavorite(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.logger)

	var req createFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Error adding favorite: invalid JSON body", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	fav, err := s.repo.Create(r.Context(), req.BaseCurrency, req.TargetCurrency)
	if err != nil {
		s.metrics.StorageErrorsTotal.WithLabelValues("create").Inc()
		log.Error("Error adding favorite", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.metrics.FavoritesCreated.Inc()
	log.Info("Favorite added",
		zap.Uint("id", fav.ID),
		zap.String("base", fav.BaseCurrency),
		zap.String("target", fav.TargetCurrency),
	)
	if err := writeJSON(w, http.StatusOK, fav); err != nil {
		log.Error("Failed to write favorite response", zap.Error(err))
	}
}
