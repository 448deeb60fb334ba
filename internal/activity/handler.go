package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/nutrition"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/weightlog"
	"github.com/2beens/fittrack/internal/workouts"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxFeedLimit = 1000

type weightRepo interface {
	ListAll(ctx context.Context, params weightlog.EntryParams) ([]weightlog.Entry, error)
}

type nutritionRepo interface {
	ListAll(ctx context.Context, params nutrition.EntryParams) ([]nutrition.Entry, error)
}

type workoutsRepo interface {
	ListAll(ctx context.Context, params workouts.WorkoutParams) ([]workouts.Workout, error)
}

type Handler struct {
	weightRepo    weightRepo
	nutritionRepo nutritionRepo
	workoutsRepo  workoutsRepo
	metrics       *metrics.Manager
}

func NewHandler(
	weightRepo weightRepo,
	nutritionRepo nutritionRepo,
	workoutsRepo workoutsRepo,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		weightRepo:    weightRepo,
		nutritionRepo: nutritionRepo,
		workoutsRepo:  workoutsRepo,
		metrics:       metrics,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	historyRouter := router.PathPrefix("/history").Subrouter()
	historyRouter.HandleFunc("", handler.HandleHistory).Methods("GET", "OPTIONS").Name("history")
	historyRouter.HandleFunc("/export", handler.HandleExport).Methods("GET", "OPTIONS").Name("history-export")
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	filter, limit, err := feedParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	feed, err := handler.compileUserFeed(ctx, userID, filter, limit)
	if err != nil {
		log.Errorf("compile history feed for user %d: %s", userID, err)
		http.Error(w, "failed to get history", http.StatusInternalServerError)
		return
	}

	feedJson, err := json.Marshal(feed)
	if err != nil {
		log.Errorf("marshal history feed: %s", err)
		http.Error(w, "failed to get history", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, feedJson)
}

func (handler *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	filter, _, err := feedParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// export is never truncated
	feed, err := handler.compileUserFeed(ctx, userID, filter, 0)
	if err != nil {
		log.Errorf("compile history export for user %d: %s", userID, err)
		http.Error(w, "failed to export history", http.StatusInternalServerError)
		return
	}

	feedCsv, err := ToCSV(feed)
	if err != nil {
		log.Errorf("render history csv for user %d: %s", userID, err)
		http.Error(w, "failed to export history", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterHistoryExports.Inc()
	log.Debugf("history export for user %d: %d records", userID, len(feed))

	filename := fmt.Sprintf("fittrack-history-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	pkg.WriteResponseBytesOK(w, pkg.ContentType.CSV, feedCsv)
}

func (handler *Handler) compileUserFeed(
	ctx context.Context,
	userID int,
	filter FeedFilter,
	limit int,
) ([]Record, error) {
	weightEntries, err := handler.weightRepo.ListAll(ctx, weightlog.EntryParams{
		UserID: userID, From: filter.From, To: filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	nutritionEntries, err := handler.nutritionRepo.ListAll(ctx, nutrition.EntryParams{
		UserID: userID, From: filter.From, To: filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	workoutEntries, err := handler.workoutsRepo.ListAll(ctx, workouts.WorkoutParams{
		UserID: userID, From: filter.From, To: filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	// filter first, then truncate, so a type filter never eats into
	// the requested limit
	feed := FilterFeed(CompileFeed(weightEntries, nutritionEntries, workoutEntries, 0), filter)
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

func feedParamsFromRequest(r *http.Request) (FeedFilter, int, error) {
	var filter FeedFilter

	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		recordType := RecordType(typeStr)
		if !recordType.Valid() {
			return FeedFilter{}, 0, fmt.Errorf("invalid activity type: %s", typeStr)
		}
		filter.Type = recordType
	}

	from, to, err := pkg.TimeRangeFromQuery(r.URL.Query(), time.Now().UTC())
	if err != nil {
		return FeedFilter{}, 0, err
	}
	filter.From = from
	filter.To = to

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxFeedLimit {
			return FeedFilter{}, 0, fmt.Errorf("invalid limit: %s", limitStr)
		}
	}

	return filter, limit, nil
}
