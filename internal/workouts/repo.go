package workouts

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

var ErrWorkoutNotFound = errors.New("workout not found")

type WorkoutParams struct {
	UserID int
	From   *time.Time
	To     *time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores the workout and its exercises in a single transaction.
func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
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

	err = tx.QueryRow(
		ctx,
		`INSERT INTO workout_entries (user_id, timestamp, name, type, duration_minutes, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;`,
		workout.UserID, workout.Timestamp, workout.Name, workout.Type, workout.DurationMinutes, workout.Notes,
	).Scan(&workout.ID)
	if err != nil {
		return nil, err
	}

	for i := range workout.Exercises {
		workout.Exercises[i].WorkoutID = workout.ID
		err = tx.QueryRow(
			ctx,
			`INSERT INTO exercise_entries (workout_id, name, sets, reps, weight_kg)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
			workout.ID, workout.Exercises[i].Name, workout.Exercises[i].Sets,
			workout.Exercises[i].Reps, workout.Exercises[i].WeightKg,
		).Scan(&workout.Exercises[i].ID)
		if err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))
	return &workout, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var workout Workout
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, timestamp, name, type, duration_minutes, notes
			FROM workout_entries
			WHERE id = $1 AND user_id = $2;`,
		id, userID,
	).Scan(
		&workout.ID, &workout.UserID, &workout.Timestamp, &workout.Name,
		&workout.Type, &workout.DurationMinutes, &workout.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	workout.Exercises, err = r.exercisesFor(ctx, workout.ID)
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

// ListAll returns the user workouts within the given time window,
// newest first, exercises included.
func (r *Repo) ListAll(ctx context.Context, params WorkoutParams) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", params.UserID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, timestamp, name, type, duration_minutes, notes
			FROM workout_entries
			WHERE user_id = $1
				AND ($2::timestamp IS NULL OR timestamp >= $2)
				AND ($3::timestamp IS NULL OR timestamp <= $3)
			ORDER BY timestamp DESC;`,
		params.UserID, params.From, params.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]Workout, 0)
	for rows.Next() {
		var workout Workout
		if err := rows.Scan(
			&workout.ID, &workout.UserID, &workout.Timestamp, &workout.Name,
			&workout.Type, &workout.DurationMinutes, &workout.Notes,
		); err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range workouts {
		workouts[i].Exercises, err = r.exercisesFor(ctx, workouts[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return workouts, nil
}

func (r *Repo) exercisesFor(ctx context.Context, workoutID int) ([]Exercise, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, workout_id, name, sets, reps, weight_kg
			FROM exercise_entries
			WHERE workout_id = $1
			ORDER BY id;`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]Exercise, 0)
	for rows.Next() {
		var ex Exercise
		if err := rows.Scan(&ex.ID, &ex.WorkoutID, &ex.Name, &ex.Sets, &ex.Reps, &ex.WeightKg); err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// Update replaces the workout row and its exercise set in a single
// transaction.
func (r *Repo) Update(ctx context.Context, workout *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", workout.ID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
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

	tag, err := tx.Exec(
		ctx,
		`UPDATE workout_entries
			SET timestamp = $1, name = $2, type = $3, duration_minutes = $4, notes = $5
			WHERE id = $6 AND user_id = $7;`,
		workout.Timestamp, workout.Name, workout.Type, workout.DurationMinutes,
		workout.Notes, workout.ID, workout.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	if _, err = tx.Exec(ctx, `DELETE FROM exercise_entries WHERE workout_id = $1;`, workout.ID); err != nil {
		return err
	}
	for i := range workout.Exercises {
		workout.Exercises[i].WorkoutID = workout.ID
		err = tx.QueryRow(
			ctx,
			`INSERT INTO exercise_entries (workout_id, name, sets, reps, weight_kg)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
			workout.ID, workout.Exercises[i].Name, workout.Exercises[i].Sets,
			workout.Exercises[i].Reps, workout.Exercises[i].WeightKg,
		).Scan(&workout.Exercises[i].ID)
		if err != nil {
			return err
		}
	}

	return nil
}

// Delete removes the workout, exercises go with it via FK cascade.
func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_entries WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

var ErrExerciseNotFound = errors.New("exercise not found")

// UpdateExercise updates a single exercise, checking through the parent
// workout that it belongs to the user.
func (r *Repo) UpdateExercise(ctx context.Context, userID int, exercise Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", exercise.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_entries e
			SET name = $1, sets = $2, reps = $3, weight_kg = $4
			FROM workout_entries w
			WHERE e.id = $5 AND e.workout_id = w.id AND w.user_id = $6;`,
		exercise.Name, exercise.Sets, exercise.Reps, exercise.WeightKg, exercise.ID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) DeleteExercise(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.deleteexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_entries e
			USING workout_entries w
			WHERE e.id = $1 AND e.workout_id = w.id AND w.user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}
