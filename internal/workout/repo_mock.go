package workout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// RepoMock is an in-memory workout store for unit tests of the training load
// engine and the ingestion orchestrator.
type RepoMock struct {
	Workouts map[int]*Workout
	// ListErr, when set, is returned by List to simulate lookup failures.
	ListErr error

	nextID int
	mutex  sync.Mutex
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Workouts: make(map[int]*Workout),
		nextID:   1,
	}
}

func (r *RepoMock) Add(_ context.Context, w Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if w.ID == 0 {
		w.ID = r.nextID
		r.nextID++
	} else if w.ID >= r.nextID {
		r.nextID = w.ID + 1
	}

	if _, ok := r.Workouts[w.ID]; ok {
		return nil, errors.New("workout exists already")
	}

	r.Workouts[w.ID] = &w
	return &w, nil
}

func (r *RepoMock) Update(_ context.Context, w *Workout) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Workouts[w.ID]; !ok {
		return ErrWorkoutNotFound
	}
	cp := *w
	r.Workouts[w.ID] = &cp
	return nil
}

func (r *RepoMock) Get(_ context.Context, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *RepoMock) GetBySourceID(_ context.Context, athleteID int, sourceID string) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, w := range r.Workouts {
		if w.AthleteID == athleteID && w.SourceID == sourceID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

func (r *RepoMock) List(_ context.Context, params ListParams) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.ListErr != nil {
		return nil, r.ListErr
	}

	var matched []Workout
	for _, w := range r.Workouts {
		if w.AthleteID != params.AthleteID {
			continue
		}
		if params.From != nil && w.StartedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && w.StartedAt.After(*params.To) {
			continue
		}
		if len(params.Activities) > 0 && !contains(params.Activities, w.Activity) {
			continue
		}
		matched = append(matched, *w)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})
	return matched, nil
}

func (r *RepoMock) FindPlanned(_ context.Context, athleteID int, activity string, day time.Time) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, w := range r.Workouts {
		if w.AthleteID == athleteID && w.Activity == activity &&
			w.Planned && !w.Completed && w.StartedOn(day) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

func (r *RepoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Workouts[id]; !ok {
		return ErrWorkoutNotFound
	}
	delete(r.Workouts, id)
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
