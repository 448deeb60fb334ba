package nutrition

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrEntryNotFound = errors.New("nutrition entry not found")

type EntryParams struct {
	UserID   int
	From     *time.Time
	To       *time.Time
	MealType MealType
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO nutrition_entries
			(user_id, timestamp, food_name, serving_size, calories, protein, carbs, fat, meal_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`,
		entry.UserID, entry.Timestamp, entry.FoodName, entry.ServingSize,
		entry.Calories, entry.Protein, entry.Carbs, entry.Fat, entry.MealType,
	).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("entry.id", entry.ID))
	return &entry, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var entry Entry
	err = r.db.QueryRow(
		ctx,
		`SELECT id, user_id, timestamp, food_name, serving_size, calories, protein, carbs, fat, meal_type
			FROM nutrition_entries
			WHERE id = $1 AND user_id = $2;`,
		id, userID,
	).Scan(
		&entry.ID, &entry.UserID, &entry.Timestamp, &entry.FoodName, &entry.ServingSize,
		&entry.Calories, &entry.Protein, &entry.Carbs, &entry.Fat, &entry.MealType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return &entry, nil
}

// ListAll returns the user entries within the given time window,
// newest first.
func (r *Repo) ListAll(ctx context.Context, params EntryParams) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", params.UserID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, timestamp, food_name, serving_size, calories, protein, carbs, fat, meal_type
			FROM nutrition_entries
			WHERE user_id = $1
				AND ($2::timestamp IS NULL OR timestamp >= $2)
				AND ($3::timestamp IS NULL OR timestamp <= $3)
				AND ($4 = '' OR meal_type = $4)
			ORDER BY timestamp DESC;`,
		params.UserID, params.From, params.To, string(params.MealType),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Timestamp, &entry.FoodName, &entry.ServingSize,
			&entry.Calories, &entry.Protein, &entry.Carbs, &entry.Fat, &entry.MealType,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repo) Update(ctx context.Context, entry *Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", entry.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE nutrition_entries
			SET timestamp = $1, food_name = $2, serving_size = $3, calories = $4,
				protein = $5, carbs = $6, fat = $7, meal_type = $8
			WHERE id = $9 AND user_id = $10;`,
		entry.Timestamp, entry.FoodName, entry.ServingSize, entry.Calories,
		entry.Protein, entry.Carbs, entry.Fat, entry.MealType, entry.ID, entry.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM nutrition_entries WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
