package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/discochess/pageviews"
)

// Repository is the subset of *pageviews.Repository the handlers use.
type Repository interface {
	Track(ctx context.Context, path string) (*pageviews.Page, error)
	Get(ctx context.Context, path string) (*pageviews.Page, error)
	List(ctx context.Context) ([]pageviews.Page, error)
	Ping(ctx context.Context) error
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// trackRequest is the optional JSON body of POST /track.
type trackRequest struct {
	Path *string `json:"path"`
}

const maxBodyBytes = 64 << 10

// TrackHandler counts a view of the requested path and responds with the
// record after the increment.
func TrackHandler(repo Repository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, ok, err := trackPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "missing required parameter: path")
			return
		}

		page, err := repo.Track(r.Context(), path)
		if err != nil {
			handleRepoError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// PageHandler returns the record for ?path= without counting a view.
func PageHandler(repo Repository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, ok := r.URL.Query()["path"]
		if !ok {
			writeError(w, http.StatusBadRequest, "missing required parameter: path")
			return
		}

		page, err := repo.Get(r.Context(), values[0])
		if err != nil {
			handleRepoError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// ListHandler returns every record ordered by path.
func ListHandler(repo Repository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages, err := repo.List(r.Context())
		if err != nil {
			handleRepoError(w, logger, err)
			return
		}
		if pages == nil {
			pages = []pageviews.Page{}
		}
		writeJSON(w, http.StatusOK, pages)
	}
}

// HealthHandler reports whether the storage backend is reachable.
func HealthHandler(repo Repository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Ping(r.Context()); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// trackPath extracts the path to track. The query parameter wins over a
// JSON body. ok is false when neither carries a path.
func trackPath(r *http.Request) (path string, ok bool, err error) {
	if values, found := r.URL.Query()["path"]; found {
		return values[0], true, nil
	}
	if r.Method != http.MethodPost || r.Body == nil {
		return "", false, nil
	}

	var req trackRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, errors.New("invalid JSON body")
	}
	if req.Path == nil {
		return "", false, nil
	}
	return *req.Path, true, nil
}

// handleRepoError maps repository errors onto HTTP statuses. Anything other
// than a missing record means storage is unavailable.
func handleRepoError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, pageviews.ErrNotFound) {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusServiceUnavailable, "storage unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
