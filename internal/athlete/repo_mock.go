package athlete

import (
	"context"
	"sync"
)

// RepoMock is an in-memory athlete store for unit tests of packages that
// only need Get/Save.
type RepoMock struct {
	Profiles map[int]*Profile
	mutex    sync.Mutex
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Profiles: make(map[int]*Profile),
	}
}

func (r *RepoMock) Get(_ context.Context, id int) (*Profile, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Profiles[id]
	if !ok {
		return nil, ErrAthleteNotFound
	}
	cp := p.Copy()
	return &cp, nil
}

func (r *RepoMock) Save(_ context.Context, p *Profile) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Profiles[p.ID]; !ok {
		return ErrAthleteNotFound
	}
	cp := p.Copy()
	r.Profiles[p.ID] = &cp
	return nil
}
