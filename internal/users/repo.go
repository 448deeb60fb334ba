package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGoalsNotFound = errors.New("goals not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO users (username, display_name, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
		RETURNING id;`,
		user.Username, user.DisplayName, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return &user, nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var user User
	err = r.db.QueryRow(
		ctx,
		`SELECT id, username, display_name, password_hash, created_at
			FROM users WHERE username = $1;`,
		username,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var user User
	err = r.db.QueryRow(
		ctx,
		`SELECT id, username, display_name, password_hash, created_at
			FROM users WHERE id = $1;`,
		id,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// ActiveGoalSet returns the currently active goal set of the user,
// or ErrGoalsNotFound when the user never saved goals.
func (r *Repo) ActiveGoalSet(ctx context.Context, userID int) (_ *GoalSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.activeGoalSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	var goals GoalSet
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, target_weight, target_daily_calories,
				target_daily_protein, target_weekly_workouts, active, created_at
			FROM user_goals
			WHERE user_id = $1 AND active IS TRUE;`,
		userID,
	).Scan(
		&goals.ID, &goals.UserID, &goals.TargetWeight, &goals.TargetDailyCalories,
		&goals.TargetDailyProtein, &goals.TargetWeeklyWorkouts, &goals.Active, &goals.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalsNotFound
		}
		return nil, err
	}

	return &goals, nil
}

// SetGoals deactivates the previously active goal set of the user and
// stores the given one as active, in a single transaction.
func (r *Repo) SetGoals(ctx context.Context, goals GoalSet) (_ *GoalSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.setGoals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", goals.UserID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("rollback: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`UPDATE user_goals SET active = FALSE WHERE user_id = $1 AND active IS TRUE;`,
		goals.UserID,
	); err != nil {
		return nil, fmt.Errorf("deactivate previous goals: %w", err)
	}

	goals.Active = true
	if goals.CreatedAt.IsZero() {
		goals.CreatedAt = time.Now()
	}

	err = tx.QueryRow(
		ctx,
		`INSERT INTO user_goals
				(user_id, target_weight, target_daily_calories,
				 target_daily_protein, target_weekly_workouts, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;`,
		goals.UserID, goals.TargetWeight, goals.TargetDailyCalories,
		goals.TargetDailyProtein, goals.TargetWeeklyWorkouts, goals.Active, goals.CreatedAt,
	).Scan(&goals.ID)
	if err != nil {
		return nil, fmt.Errorf("insert goals: %w", err)
	}

	return &goals, nil
}
