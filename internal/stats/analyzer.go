package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/2beens/fittrack/internal/nutrition"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/users"
	"github.com/2beens/fittrack/internal/weightlog"
	"github.com/2beens/fittrack/internal/workouts"
	"github.com/2beens/fittrack/pkg"

	"go.opentelemetry.io/otel/attribute"
)

type weightRepo interface {
	ListAll(ctx context.Context, params weightlog.EntryParams) ([]weightlog.Entry, error)
}

type nutritionRepo interface {
	ListAll(ctx context.Context, params nutrition.EntryParams) ([]nutrition.Entry, error)
}

type workoutsRepo interface {
	ListAll(ctx context.Context, params workouts.WorkoutParams) ([]workouts.Workout, error)
}

type goalsRepo interface {
	ActiveGoalSet(ctx context.Context, userID int) (*users.GoalSet, error)
}

// Analyzer composes the aggregation functions over repo rows into the
// response shapes the dashboard and stats endpoints serve.
type Analyzer struct {
	weightRepo    weightRepo
	nutritionRepo nutritionRepo
	workoutsRepo  workoutsRepo
	goalsRepo     goalsRepo
}

func NewAnalyzer(
	weightRepo weightRepo,
	nutritionRepo nutritionRepo,
	workoutsRepo workoutsRepo,
	goalsRepo goalsRepo,
) *Analyzer {
	return &Analyzer{
		weightRepo:    weightRepo,
		nutritionRepo: nutritionRepo,
		workoutsRepo:  workoutsRepo,
		goalsRepo:     goalsRepo,
	}
}

type Dashboard struct {
	CurrentWeight      float64 `json:"currentWeight"`
	WeightChange30Days float64 `json:"weightChange30Days"`
	WeightGoalProgress int     `json:"weightGoalProgress"`

	CaloriesToday        int `json:"caloriesToday"`
	CaloriesGoalProgress int `json:"caloriesGoalProgress"`
	ProteinToday         int `json:"proteinToday"`
	ProteinGoalProgress  int `json:"proteinGoalProgress"`

	WorkoutsThisWeek       int `json:"workoutsThisWeek"`
	WorkoutMinutesThisWeek int `json:"workoutMinutesThisWeek"`
	WorkoutsGoalProgress   int `json:"workoutsGoalProgress"`
}

// GetDashboard builds the landing page numbers for the user, relative
// to now (UTC).
func (a *Analyzer) GetDashboard(ctx context.Context, userID int, now time.Time) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.fittrack.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	goals, err := a.goalsRepo.ActiveGoalSet(ctx, userID)
	if errors.Is(err, users.ErrGoalsNotFound) {
		defaults := users.DefaultGoalSet(userID)
		goals = &defaults
	} else if err != nil {
		return nil, fmt.Errorf("active goal set: %w", err)
	}

	today := pkg.Window{From: pkg.StartOfDay(now), To: pkg.EndOfDay(now)}
	thisWeek := pkg.Window{
		From: pkg.StartOfWeek(now),
		To:   pkg.EndOfDay(pkg.StartOfWeek(now).AddDate(0, 0, 6)),
	}
	last30Days := pkg.Window{
		From: pkg.StartOfDay(now).AddDate(0, 0, -29),
		To:   pkg.EndOfDay(now),
	}

	dashboard := &Dashboard{}

	weightEntries, err := a.weightRepo.ListAll(ctx, weightlog.EntryParams{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	weightSamples := weightToSamples(weightEntries)
	if latest, ok := LatestValue(weightSamples); ok {
		dashboard.CurrentWeight = latest
	}
	dashboard.WeightChange30Days = roundToOneDecimal(ChangeOverWindow(weightSamples, last30Days))
	dashboard.WeightGoalProgress = weightGoalProgress(weightSamples, goals.TargetWeight)

	nutritionEntries, err := a.nutritionRepo.ListAll(ctx, nutrition.EntryParams{
		UserID: userID, From: &today.From, To: &today.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	calories := SumOverWindow(nutritionToCalorieSamples(nutritionEntries), today)
	protein := SumOverWindow(nutritionToProteinSamples(nutritionEntries), today)
	dashboard.CaloriesToday = int(calories)
	dashboard.CaloriesGoalProgress = PercentageOfGoal(calories, float64(goals.TargetDailyCalories))
	dashboard.ProteinToday = int(math.Round(protein))
	dashboard.ProteinGoalProgress = PercentageOfGoal(protein, goals.TargetDailyProtein)

	workoutEntries, err := a.workoutsRepo.ListAll(ctx, workouts.WorkoutParams{
		UserID: userID, From: &thisWeek.From, To: &thisWeek.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	durationSamples := workoutsToDurationSamples(workoutEntries)
	dashboard.WorkoutsThisWeek = CountOverWindow(durationSamples, thisWeek)
	dashboard.WorkoutMinutesThisWeek = int(SumOverWindow(durationSamples, thisWeek))
	dashboard.WorkoutsGoalProgress = PercentageOfGoal(
		float64(dashboard.WorkoutsThisWeek), float64(goals.TargetWeeklyWorkouts),
	)

	return dashboard, nil
}

type WeeklyCharts struct {
	WeekStart      time.Time  `json:"weekStart"`
	Calories       [7]float64 `json:"calories"`
	WorkoutMinutes [7]float64 `json:"workoutMinutes"`
	Weight         [7]float64 `json:"weight"`
}

// GetWeeklyCharts builds the Monday..Sunday chart series for the week
// containing now. The weight series is gap-filled so the chart line
// does not drop to zero on days without a reading.
func (a *Analyzer) GetWeeklyCharts(ctx context.Context, userID int, now time.Time) (_ *WeeklyCharts, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.fittrack.weeklycharts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	weekStart := pkg.StartOfWeek(now)
	weekEnd := pkg.EndOfDay(weekStart.AddDate(0, 0, 6))

	charts := &WeeklyCharts{WeekStart: weekStart}

	nutritionEntries, err := a.nutritionRepo.ListAll(ctx, nutrition.EntryParams{
		UserID: userID, From: &weekStart, To: &weekEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	charts.Calories, _ = BucketByDayOfWeek(nutritionToCalorieSamples(nutritionEntries), weekStart)

	workoutEntries, err := a.workoutsRepo.ListAll(ctx, workouts.WorkoutParams{
		UserID: userID, From: &weekStart, To: &weekEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	charts.WorkoutMinutes, _ = BucketByDayOfWeek(workoutsToDurationSamples(workoutEntries), weekStart)

	weightEntries, err := a.weightRepo.ListAll(ctx, weightlog.EntryParams{
		UserID: userID, From: &weekStart, To: &weekEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	weightValues, weightObserved := LatestByDayOfWeek(weightToSamples(weightEntries), weekStart)
	charts.Weight = CarryForwardMissingDays(weightValues, weightObserved)

	return charts, nil
}

type Trends struct {
	Weeks         int          `json:"weeks"`
	AvgCalories   []WeekBucket `json:"avgCalories"`
	WorkoutCounts []WeekBucket `json:"workoutCounts"`
	AvgWeight     []WeekBucket `json:"avgWeight"`
}

// GetTrends builds weekly history series for the last weeks weeks,
// most recent week last.
func (a *Analyzer) GetTrends(ctx context.Context, userID, weeks int, now time.Time) (_ *Trends, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.fittrack.trends")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID), attribute.Int("weeks", weeks))

	from := pkg.StartOfWeek(now).AddDate(0, 0, -7*(weeks-1))
	to := pkg.EndOfDay(pkg.StartOfWeek(now).AddDate(0, 0, 6))

	trends := &Trends{Weeks: weeks}

	nutritionEntries, err := a.nutritionRepo.ListAll(ctx, nutrition.EntryParams{
		UserID: userID, From: &from, To: &to,
	})
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	trends.AvgCalories = BucketByWeek(nutritionToCalorieSamples(nutritionEntries), weeks, now, AvgValues)

	workoutEntries, err := a.workoutsRepo.ListAll(ctx, workouts.WorkoutParams{
		UserID: userID, From: &from, To: &to,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	trends.WorkoutCounts = BucketByWeek(
		workoutsToDurationSamples(workoutEntries), weeks, now,
		func(values []float64) float64 { return float64(len(values)) },
	)

	weightEntries, err := a.weightRepo.ListAll(ctx, weightlog.EntryParams{
		UserID: userID, From: &from, To: &to,
	})
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	trends.AvgWeight = BucketByWeek(weightToSamples(weightEntries), weeks, now, AvgValues)

	return trends, nil
}

type Distribution struct {
	WorkoutTypes map[string]int `json:"workoutTypes"`
	MealTypes    map[string]int `json:"mealTypes"`
	MealCalories map[string]int `json:"mealCalories"`
}

// GetDistribution counts workouts per type and meals per meal type
// within the window, plus calorie totals per meal type.
func (a *Analyzer) GetDistribution(ctx context.Context, userID int, window pkg.Window) (_ *Distribution, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.fittrack.distribution")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	workoutEntries, err := a.workoutsRepo.ListAll(ctx, workouts.WorkoutParams{
		UserID: userID, From: &window.From, To: &window.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	workoutTypes := make([]string, 0, len(workoutEntries))
	for _, w := range workoutEntries {
		workoutTypes = append(workoutTypes, string(w.Type))
	}

	nutritionEntries, err := a.nutritionRepo.ListAll(ctx, nutrition.EntryParams{
		UserID: userID, From: &window.From, To: &window.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	mealTypes := make([]string, 0, len(nutritionEntries))
	mealCalories := make(map[string]int)
	for _, e := range nutritionEntries {
		mealTypes = append(mealTypes, string(e.MealType))
		mealCalories[string(e.MealType)] += e.Calories
	}

	return &Distribution{
		WorkoutTypes: DistributionByCategory(workoutTypes),
		MealTypes:    DistributionByCategory(mealTypes),
		MealCalories: mealCalories,
	}, nil
}

// weightGoalProgress measures how far along the user is from the first
// recorded weight towards the target: the remaining distance to target
// as a percentage of the starting distance.
func weightGoalProgress(weightSamples []Sample, targetWeight float64) int {
	if len(weightSamples) == 0 {
		return 0
	}
	latest, _ := LatestValue(weightSamples)
	earliest := weightSamples[0]
	for _, s := range weightSamples[1:] {
		if s.Timestamp.Before(earliest.Timestamp) {
			earliest = s
		}
	}
	return PercentageOfGoal(
		math.Abs(latest-targetWeight),
		math.Abs(earliest.Value-targetWeight),
	)
}

func weightToSamples(entries []weightlog.Entry) []Sample {
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, Sample{Timestamp: e.Timestamp, Value: e.WeightKg})
	}
	return samples
}

func nutritionToCalorieSamples(entries []nutrition.Entry) []Sample {
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, Sample{Timestamp: e.Timestamp, Value: float64(e.Calories)})
	}
	return samples
}

func nutritionToProteinSamples(entries []nutrition.Entry) []Sample {
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, Sample{Timestamp: e.Timestamp, Value: e.Protein})
	}
	return samples
}

func workoutsToDurationSamples(entries []workouts.Workout) []Sample {
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, Sample{Timestamp: e.Timestamp, Value: float64(e.DurationMinutes)})
	}
	return samples
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
