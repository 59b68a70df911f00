package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"taskhub/internal/common"
	"taskhub/internal/mailer"
	"taskhub/internal/models"
	"taskhub/internal/repositories/tasks"
	"taskhub/internal/repositories/users"
)

// --- in-memory collaborators ---

type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.User{}} }

func (m *memUsers) emailTaken(email, excludeID string) bool {
	for id, u := range m.byID {
		if id != excludeID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, "") {
		return nil, common.ErrDuplicateEmail
	}
	m.byID[u.ID] = *u
	out := *u
	return &out, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emailTaken(email, excludeID), nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return nil, common.ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return nil, common.ErrDuplicateEmail
	}
	m.byID[u.ID] = *u
	out := *u
	return &out, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) List(_ context.Context, f users.Filter, page models.PageRequest) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.User
	for _, u := range m.byID {
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	total := len(all)
	start := min(page.Offset(), total)
	end := min(start+page.Limit(), total)
	return all[start:end], total, nil
}

type memTasks struct {
	mu   sync.Mutex
	byID map[string]models.Task
}

func newMemTasks() *memTasks { return &memTasks{byID: map[string]models.Task{}} }

func (m *memTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID] = *t
	out := *t
	return &out, nil
}

func (m *memTasks) GetByID(_ context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (m *memTasks) Update(_ context.Context, t *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; !ok {
		return nil, common.ErrNotFound
	}
	m.byID[t.ID] = *t
	out := *t
	return &out, nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTasks) ListByOwner(_ context.Context, ownerID string, f tasks.Filter, page models.PageRequest) ([]models.Task, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Task
	for _, t := range m.byID {
		if !t.OwnedBy(ownerID) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Title)) {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	total := len(all)
	start := min(page.Offset(), total)
	end := min(start+page.Limit(), total)
	return all[start:end], total, nil
}

func (m *memTasks) CountByStatus(_ context.Context, ownerID string) ([]models.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.TaskStatus]int{}
	for _, t := range m.byID {
		if t.OwnedBy(ownerID) {
			counts[t.Status]++
		}
	}
	var out []models.StatusCount
	for _, s := range models.TaskStatuses {
		if n := counts[s]; n > 0 {
			out = append(out, models.StatusCount{Status: s, Count: n})
		}
	}
	return out, nil
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mailer.Message{}
	}
	return o.sent[len(o.sent)-1]
}

type events struct {
	mu  sync.Mutex
	got map[string][]models.TaskEvent
}

func (e *events) Publish(ownerID string, ev models.TaskEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.got == nil {
		e.got = map[string][]models.TaskEvent{}
	}
	e.got[ownerID] = append(e.got[ownerID], ev)
}

func (e *events) types(ownerID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.got[ownerID] {
		out = append(out, ev.Type)
	}
	return out
}
