package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/middleware"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ActiveGoalSet(ctx context.Context, userID int) (*GoalSet, error)
	SetGoals(ctx context.Context, goals GoalSet) (*GoalSet, error)
}

type Handler struct {
	repo        usersRepo
	authService *auth.Service
}

func NewHandler(repo usersRepo, authService *auth.Service) *Handler {
	return &Handler{
		repo:        repo,
		authService: authService,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	loginRateLimitAllowedPerMin int,
) {
	accountSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	accountSubrouter.HandleFunc("/register", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	accountSubrouter.HandleFunc("/login", handler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	accountSubrouter.HandleFunc("/logout", handler.HandleLogout).Methods("GET", "OPTIONS").Name("logout")

	// rate limit the account endpoints to prevent abuse
	accountSubrouter.Use(middleware.RateLimit(rateLimiter, "login", loginRateLimitAllowedPerMin, metricsManager))

	mainRouter.HandleFunc("/goals", handler.HandleGetGoals).Methods("GET", "OPTIONS").Name("get-goals")
	mainRouter.HandleFunc("/goals", handler.HandleSetGoals).Methods("POST", "OPTIONS").Name("set-goals")
}

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var registerReq RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if registerReq.Username == "" || registerReq.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}
	if registerReq.DisplayName == "" {
		registerReq.DisplayName = registerReq.Username
	}

	passwordHash, err := pkg.HashPassword(registerReq.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	addedUser, err := handler.repo.Add(ctx, User{
		Username:     registerReq.Username,
		DisplayName:  registerReq.DisplayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "username taken", http.StatusConflict)
			return
		}
		log.Errorf("failed to add new user [%s]: %s", registerReq.Username, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	userJson, err := json.Marshal(addedUser)
	if err != nil {
		log.Errorf("failed to marshal new user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user registered: %s", addedUser.Username)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	type loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var loginReq loginRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		loginReq.Username = r.Form.Get("username")
		loginReq.Password = r.Form.Get("password")
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.GetByUsername(ctx, loginReq.Username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Errorf("login, get user [%s]: %s", loginReq.Username, err)
		}
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		log.Tracef("failed login attempt for user: %s", loginReq.Username)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.Login(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	log.Tracef("new login success: %s", user.Username)
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s"}`, token))
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	authToken := r.Header.Get(middleware.AuthTokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.authService.Logout(ctx, authToken); err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"logged-out": true}`)
}

// HandleGetGoals returns the active goal set, falling back to the defaults
// when the user never saved goals. Consumers always get a renderable shape.
func (handler *Handler) HandleGetGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.getGoals")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	goals, err := handler.repo.ActiveGoalSet(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrGoalsNotFound) {
			log.Errorf("failed to get goals for user %d: %s", userID, err)
			http.Error(w, "failed to get goals", http.StatusInternalServerError)
			return
		}
		defaultGoals := DefaultGoalSet(userID)
		goals = &defaultGoals
	}

	goalsJson, err := json.Marshal(goals)
	if err != nil {
		log.Errorf("failed to marshal goals: %s", err)
		http.Error(w, "failed to marshal goals", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(goalsJson))
}

func (handler *Handler) HandleSetGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.setGoals")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var goals GoalSet
	if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
		log.Tracef("set goals, unmarshal json params: %s", err)
		http.Error(w, "set goals failed", http.StatusBadRequest)
		return
	}

	if goals.TargetWeight < 0 || goals.TargetDailyCalories < 0 ||
		goals.TargetDailyProtein < 0 || goals.TargetWeeklyWorkouts < 0 {
		http.Error(w, "error, goal values must not be negative", http.StatusBadRequest)
		return
	}

	goals.UserID = userID
	savedGoals, err := handler.repo.SetGoals(ctx, goals)
	if err != nil {
		log.Errorf("failed to set goals for user %d: %s", userID, err)
		http.Error(w, "failed to set goals", http.StatusInternalServerError)
		return
	}

	goalsJson, err := json.Marshal(savedGoals)
	if err != nil {
		log.Errorf("failed to marshal goals: %s", err)
		http.Error(w, "failed to marshal goals", http.StatusInternalServerError)
		return
	}

	log.Debugf("goals updated for user %d", userID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, goalsJson, http.StatusCreated)
}
