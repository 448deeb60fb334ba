package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type entriesRepo interface {
	Add(ctx context.Context, entry Entry) (*Entry, error)
	Get(ctx context.Context, userID, id int) (*Entry, error)
	ListAll(ctx context.Context, params EntryParams) ([]Entry, error)
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, userID, id int) error
}

type Handler struct {
	repo    entriesRepo
	metrics *metrics.Manager
}

func NewHandler(repo entriesRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	nutritionRouter := router.PathPrefix("/nutrition").Subrouter()
	nutritionRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-nutrition")
	nutritionRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-nutrition")
	nutritionRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-nutrition")
	nutritionRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-nutrition")
	nutritionRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-nutrition")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Errorf("add nutrition entry, unmarshal json params: %s", err)
		http.Error(w, "add nutrition entry failed", http.StatusBadRequest)
		return
	}

	if err := entry.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.UserID = userID

	added, err := handler.repo.Add(ctx, entry)
	if err != nil {
		log.Errorf("failed to add nutrition entry: %s", err)
		http.Error(w, "error, failed to add nutrition entry", http.StatusInternalServerError)
		return
	}

	log.Tracef("new nutrition entry added: %d [user %d]", added.ID, userID)
	handler.metrics.CounterEntriesAdded.WithLabelValues("nutrition").Inc()

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added nutrition entry: %s", err)
		http.Error(w, "error, failed to add nutrition entry", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	from, to, err := pkg.TimeRangeFromQuery(r.URL.Query(), time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mealType := MealType(r.URL.Query().Get("mealType"))
	if mealType != "" && !mealType.Valid() {
		http.Error(w, fmt.Sprintf("invalid meal type: %s", mealType), http.StatusBadRequest)
		return
	}

	entries, err := handler.repo.ListAll(ctx, EntryParams{
		UserID:   userID,
		From:     from,
		To:       to,
		MealType: mealType,
	})
	if err != nil {
		log.Errorf("list nutrition entries: %s", err)
		http.Error(w, "failed to list nutrition entries", http.StatusInternalServerError)
		return
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal nutrition entries: %s", err)
		http.Error(w, "failed to list nutrition entries", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entriesJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := entryIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("get nutrition entry %d: %s", id, err)
		http.Error(w, "failed to get nutrition entry", http.StatusInternalServerError)
		return
	}

	entryJson, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("marshal nutrition entry: %s", err)
		http.Error(w, "failed to get nutrition entry", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entryJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := entryIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Errorf("update nutrition entry, unmarshal json params: %s", err)
		http.Error(w, "update nutrition entry failed", http.StatusBadRequest)
		return
	}
	if err := entry.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry.ID = id
	entry.UserID = userID
	if err := handler.repo.Update(ctx, &entry); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("update nutrition entry %d: %s", id, err)
		http.Error(w, "failed to update nutrition entry", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := entryIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete nutrition entry %d: %s", id, err)
		http.Error(w, "failed to delete nutrition entry", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func entryIDFromRequest(r *http.Request) (int, error) {
	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		return 0, errors.New("entry id is empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id: %s", idStr)
	}
	return id, nil
}
