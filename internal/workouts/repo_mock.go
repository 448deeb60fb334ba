package workouts

import (
	"context"
	"sort"
	"sync"
)

type repoMock struct {
	mu             sync.Mutex
	nextID         int
	nextExerciseID int
	workouts       map[int]Workout
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID:         1,
		nextExerciseID: 1,
		workouts:       make(map[int]Workout),
	}
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout.ID = r.nextID
	r.nextID++
	for i := range workout.Exercises {
		workout.Exercises[i].ID = r.nextExerciseID
		r.nextExerciseID++
		workout.Exercises[i].WorkoutID = workout.ID
	}
	r.workouts[workout.ID] = workout
	return &workout, nil
}

func (r *repoMock) Get(_ context.Context, userID, id int) (*Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout, ok := r.workouts[id]
	if !ok || workout.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	return &workout, nil
}

func (r *repoMock) ListAll(_ context.Context, params WorkoutParams) ([]Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workouts := make([]Workout, 0)
	for _, workout := range r.workouts {
		if workout.UserID != params.UserID {
			continue
		}
		if params.From != nil && workout.Timestamp.Before(*params.From) {
			continue
		}
		if params.To != nil && workout.Timestamp.After(*params.To) {
			continue
		}
		workouts = append(workouts, workout)
	}
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].Timestamp.After(workouts[j].Timestamp)
	})
	return workouts, nil
}

func (r *repoMock) Update(_ context.Context, workout *Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.workouts[workout.ID]
	if !ok || existing.UserID != workout.UserID {
		return ErrWorkoutNotFound
	}
	for i := range workout.Exercises {
		workout.Exercises[i].ID = r.nextExerciseID
		r.nextExerciseID++
		workout.Exercises[i].WorkoutID = workout.ID
	}
	r.workouts[workout.ID] = *workout
	return nil
}

func (r *repoMock) Delete(_ context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout, ok := r.workouts[id]
	if !ok || workout.UserID != userID {
		return ErrWorkoutNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *repoMock) UpdateExercise(_ context.Context, userID int, exercise Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, workout := range r.workouts {
		if workout.UserID != userID {
			continue
		}
		for i := range workout.Exercises {
			if workout.Exercises[i].ID == exercise.ID {
				exercise.WorkoutID = workout.Exercises[i].WorkoutID
				workout.Exercises[i] = exercise
				r.workouts[id] = workout
				return nil
			}
		}
	}
	return ErrExerciseNotFound
}

func (r *repoMock) DeleteExercise(_ context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for wid, workout := range r.workouts {
		if workout.UserID != userID {
			continue
		}
		for i := range workout.Exercises {
			if workout.Exercises[i].ID == id {
				workout.Exercises = append(workout.Exercises[:i], workout.Exercises[i+1:]...)
				r.workouts[wid] = workout
				return nil
			}
		}
	}
	return ErrExerciseNotFound
}
