package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/pkg"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTrendsWeeks = 12
	maxTrendsWeeks     = 104

	// aggregations are recomputed at most once per minute per user
	statsCacheExpireSeconds = 60
)

type Handler struct {
	analyzer *Analyzer
	cache    *freecache.Cache
}

func NewHandler(analyzer *Analyzer) *Handler {
	megabyte := 1024 * 1024
	return &Handler{
		analyzer: analyzer,
		cache:    freecache.NewCache(10 * megabyte),
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", handler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
	router.HandleFunc("/dashboard/charts", handler.HandleWeeklyCharts).Methods("GET", "OPTIONS").Name("dashboard-charts")

	statsRouter := router.PathPrefix("/stats").Subrouter()
	statsRouter.HandleFunc("/trends", handler.HandleTrends).Methods("GET", "OPTIONS").Name("stats-trends")
	statsRouter.HandleFunc("/distribution", handler.HandleDistribution).Methods("GET", "OPTIONS").Name("stats-distribution")
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	cacheKey := fmt.Sprintf("dashboard::%d", userID)
	if cached, err := handler.cache.Get([]byte(cacheKey)); err == nil {
		log.Tracef("dashboard for user %d served from cache", userID)
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	dashboard, err := handler.analyzer.GetDashboard(ctx, userID, time.Now().UTC())
	if err != nil {
		log.Errorf("get dashboard for user %d: %s", userID, err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}

	dashboardJson, err := json.Marshal(dashboard)
	if err != nil {
		log.Errorf("marshal dashboard: %s", err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set([]byte(cacheKey), dashboardJson, statsCacheExpireSeconds); err != nil {
		log.Errorf("failed to cache dashboard for user %d: %s", userID, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, dashboardJson)
}

func (handler *Handler) HandleWeeklyCharts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	cacheKey := fmt.Sprintf("charts::%d", userID)
	if cached, err := handler.cache.Get([]byte(cacheKey)); err == nil {
		log.Tracef("weekly charts for user %d served from cache", userID)
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	charts, err := handler.analyzer.GetWeeklyCharts(ctx, userID, time.Now().UTC())
	if err != nil {
		log.Errorf("get weekly charts for user %d: %s", userID, err)
		http.Error(w, "failed to get weekly charts", http.StatusInternalServerError)
		return
	}

	chartsJson, err := json.Marshal(charts)
	if err != nil {
		log.Errorf("marshal weekly charts: %s", err)
		http.Error(w, "failed to get weekly charts", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set([]byte(cacheKey), chartsJson, statsCacheExpireSeconds); err != nil {
		log.Errorf("failed to cache weekly charts for user %d: %s", userID, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, chartsJson)
}

func (handler *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	weeks := defaultTrendsWeeks
	if weeksStr := r.URL.Query().Get("weeks"); weeksStr != "" {
		parsed, err := strconv.Atoi(weeksStr)
		if err != nil || parsed <= 0 || parsed > maxTrendsWeeks {
			http.Error(w, fmt.Sprintf("invalid weeks param: %s", weeksStr), http.StatusBadRequest)
			return
		}
		weeks = parsed
	}

	cacheKey := fmt.Sprintf("trends::%d::%d", userID, weeks)
	if cached, err := handler.cache.Get([]byte(cacheKey)); err == nil {
		log.Tracef("trends for user %d served from cache", userID)
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	trends, err := handler.analyzer.GetTrends(ctx, userID, weeks, time.Now().UTC())
	if err != nil {
		log.Errorf("get trends for user %d: %s", userID, err)
		http.Error(w, "failed to get trends", http.StatusInternalServerError)
		return
	}

	trendsJson, err := json.Marshal(trends)
	if err != nil {
		log.Errorf("marshal trends: %s", err)
		http.Error(w, "failed to get trends", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set([]byte(cacheKey), trendsJson, statsCacheExpireSeconds); err != nil {
		log.Errorf("failed to cache trends for user %d: %s", userID, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, trendsJson)
}

func (handler *Handler) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	window := pkg.Window{From: pkg.StartOfDay(now).AddDate(0, 0, -29), To: pkg.EndOfDay(now)}
	if preset := r.URL.Query().Get("window"); preset != "" {
		resolved, err := pkg.ResolveWindowPreset(preset, now)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		window = resolved
	}

	distribution, err := handler.analyzer.GetDistribution(ctx, userID, window)
	if err != nil {
		log.Errorf("get distribution for user %d: %s", userID, err)
		http.Error(w, "failed to get distribution", http.StatusInternalServerError)
		return
	}

	distributionJson, err := json.Marshal(distribution)
	if err != nil {
		log.Errorf("marshal distribution: %s", err)
		http.Error(w, "failed to get distribution", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, distributionJson)
}
