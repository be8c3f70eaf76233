package meals

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is a mutex-guarded store for dev and testing. It enforces the same
// uniqueness and check-and-set rules as the Postgres repository.
type MemStore struct {
	mu       sync.Mutex
	byID     map[string]*Participant
	byToken  map[string]string
	byMobile map[string]string
	admins   map[string]Admin
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		byID:     make(map[string]*Participant),
		byToken:  make(map[string]string),
		byMobile: make(map[string]string),
		admins:   make(map[string]Admin),
	}
}

func (m *MemStore) InsertParticipant(_ context.Context, p Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := MobileKey(p.Mobile)
	if _, ok := m.byMobile[key]; ok {
		return ErrMobileTaken
	}
	if _, ok := m.byToken[p.Token]; ok {
		return ErrTokenTaken
	}
	cp := p
	m.byID[p.ID] = &cp
	m.byToken[p.Token] = p.ID
	m.byMobile[key] = p.ID
	return nil
}

func (m *MemStore) FindByToken(_ context.Context, token string) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, nil
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemStore) FindByID(_ context.Context, id string) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) FindByNameAndTeam(_ context.Context, name, teamName string) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Participant
	for _, p := range m.byID {
		if !strings.EqualFold(p.Name, name) || !strings.EqualFold(p.TeamName, teamName) {
			continue
		}
		if best == nil || p.CreatedAt.Before(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID < best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *MemStore) ListAll(_ context.Context) ([]Participant, error) {
	m.mu.Lock()
	res := make([]Participant, 0, len(m.byID))
	for _, p := range m.byID {
		res = append(res, *p)
	}
	m.mu.Unlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (m *MemStore) ExistingMobiles(_ context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make(map[string]struct{}, len(m.byMobile))
	for k := range m.byMobile {
		res[k] = struct{}{}
	}
	return res, nil
}

func (m *MemStore) MarkServed(_ context.Context, participantID string, slot MealSlot) (Outcome, error) {
	if _, err := slotColumn(slot); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[participantID]
	if !ok {
		return OutcomeParticipantNotFound, nil
	}
	if p.Served(slot) {
		return OutcomeAlreadyServed, nil
	}
	p.markSlot(slot)
	return OutcomeMarked, nil
}

func (m *MemStore) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{Total: len(m.byID)}
	for _, p := range m.byID {
		if p.Breakfast {
			s.Breakfast++
		}
		if p.Lunch {
			s.Lunch++
		}
		if p.Dinner {
			s.Dinner++
		}
	}
	return s, nil
}

func (m *MemStore) FindAdmin(_ context.Context, username string) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[username]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MemStore) CreateAdmin(_ context.Context, a Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[a.Username]; ok {
		return ErrAdminExists
	}
	m.admins[a.Username] = a
	return nil
}

func (m *MemStore) Ping(context.Context) error { return nil }
