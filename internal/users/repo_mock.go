package users

import (
	"context"
	"time"
)

type repoMock struct {
	users    map[int]*User
	goals    map[int]*GoalSet
	nextID   int
	goalsIDs int
}

func NewMockUsersRepo() *repoMock {
	return &repoMock{
		users: make(map[int]*User),
		goals: make(map[int]*GoalSet),
	}
}

func (r *repoMock) Add(_ context.Context, user User) (*User, error) {
	r.nextID++
	user.ID = r.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.users[user.ID] = &user
	return &user, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *repoMock) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) ActiveGoalSet(_ context.Context, userID int) (*GoalSet, error) {
	goals, ok := r.goals[userID]
	if !ok {
		return nil, ErrGoalsNotFound
	}
	return goals, nil
}

func (r *repoMock) SetGoals(_ context.Context, goals GoalSet) (*GoalSet, error) {
	r.goalsIDs++
	goals.ID = r.goalsIDs
	goals.Active = true
	r.goals[goals.UserID] = &goals
	return &goals, nil
}
