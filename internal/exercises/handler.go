package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

type logService interface {
	Create(ctx context.Context, owner string, params NewRecordParams) (*Record, error)
	Delete(ctx context.Context, owner, id string) error
	Snapshot(ctx context.Context, owner string) ([]Record, error)
}

type DeleteRecordResponse struct {
	DeletedID string `json:"deletedId"`
}

type ListResponse struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

type Handler struct {
	service logService
}

func NewHandler(service logService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.create")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params NewRecordParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new record, unmarshal json params: %s", err)
		http.Error(w, "create record failed", http.StatusBadRequest)
		return
	}

	owner, _ := auth.OwnerFromContext(ctx)
	added, err := handler.service.Create(ctx, owner, params)
	switch {
	case errors.Is(err, ErrInvalidIdentity):
		http.Error(w, "no valid session", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrInvalidRecord):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("failed to create record [%s] [%s]: %s", owner, params.ExerciseName, err)
		http.Error(w, "error, failed to create record", http.StatusInternalServerError)
		return
	}

	log.Debugf("new record added: %s [%s]", added.ID, added.ExerciseName)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	owner, _ := auth.OwnerFromContext(ctx)
	err := handler.service.Delete(ctx, owner, id)
	switch {
	case errors.Is(err, ErrInvalidIdentity):
		http.Error(w, "no valid session", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrRecordNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("failed to delete record %s: %s", id, err)
		http.Error(w, "error, failed to delete record", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, DeleteRecordResponse{DeletedID: id}, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	owner, _ := auth.OwnerFromContext(ctx)
	records, err := handler.service.Snapshot(ctx, owner)
	if err != nil {
		log.Errorf("failed to list records [%s]: %s", owner, err)
		http.Error(w, "error, failed to list records", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, ListResponse{
		Records: records,
		Total:   len(records),
	}, http.StatusOK)
}

// HandleCatalog lists predefined exercises. Query params: category (or "All") and q.
func (handler *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	var category Category
	if c := r.URL.Query().Get("category"); c != "" && c != "All" {
		parsed, err := ParseCategory(c)
		if err != nil {
			http.Error(w, "error, unknown category", http.StatusBadRequest)
			return
		}
		category = parsed
	}

	pkg.WriteJSON(w, SearchCatalog(r.URL.Query().Get("q"), category), http.StatusOK)
}
