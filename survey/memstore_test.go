package survey

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/mbolis/quick-forms/model"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	forms     map[string]model.Form
	responses map[string]model.Response
	users     map[string]model.User
	seq       int

	failDeleteResponses error
	failDeleteForm      error
}

func newMemStore() *memStore {
	return &memStore{
		forms:     map[string]model.Form{},
		responses: map[string]model.Response{},
		users:     map[string]model.User{},
	}
}

func (m *memStore) FindFormByID(_ context.Context, id string) (*model.Form, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	f.Fields = append([]model.FieldDefinition(nil), f.Fields...)
	return &f, nil
}

func (m *memStore) FindFormsByOwner(_ context.Context, ownerID string) ([]model.Form, error) {
	forms := []model.Form{}
	for _, f := range m.forms {
		if f.OwnerID == ownerID {
			forms = append(forms, f)
		}
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].ID < forms[j].ID })
	return forms, nil
}

func (m *memStore) InsertForm(_ context.Context, form *model.Form) error {
	m.forms[form.ID] = *form
	return nil
}

func (m *memStore) UpdateForm(_ context.Context, form *model.Form) error {
	if _, ok := m.forms[form.ID]; !ok {
		return ErrNotFound
	}
	m.forms[form.ID] = *form
	return nil
}

func (m *memStore) DeleteForm(_ context.Context, id string) error {
	if m.failDeleteForm != nil {
		return m.failDeleteForm
	}
	if _, ok := m.forms[id]; !ok {
		return ErrNotFound
	}
	delete(m.forms, id)
	return nil
}

func (m *memStore) FindResponseByID(_ context.Context, id string) (*model.Response, error) {
	r, ok := m.responses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memStore) FindResponsesByFormID(_ context.Context, formID string) ([]model.Response, error) {
	responses := []model.Response{}
	for _, r := range m.responses {
		if r.FormID == formID {
			responses = append(responses, r)
		}
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })
	return responses, nil
}

func (m *memStore) FindResponsesPage(ctx context.Context, formID string, offset, limit int) ([]model.Response, error) {
	all, _ := m.FindResponsesByFormID(ctx, formID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memStore) CountResponsesByFormID(ctx context.Context, formID string) (int64, error) {
	all, _ := m.FindResponsesByFormID(ctx, formID)
	return int64(len(all)), nil
}

func (m *memStore) InsertResponse(_ context.Context, resp *model.Response) error {
	m.responses[resp.ID] = *resp
	return nil
}

func (m *memStore) UpdateResponseAnswers(_ context.Context, id string, answers []model.Answer, updatedAt time.Time) (*model.Response, error) {
	r, ok := m.responses[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Answers = answers
	r.UpdatedAt = updatedAt
	m.responses[id] = r
	return &r, nil
}

func (m *memStore) DeleteResponse(_ context.Context, id string) error {
	if _, ok := m.responses[id]; !ok {
		return ErrNotFound
	}
	delete(m.responses, id)
	return nil
}

func (m *memStore) DeleteResponsesByFormID(_ context.Context, formID string) (int64, error) {
	if m.failDeleteResponses != nil {
		return 0, m.failDeleteResponses
	}
	var n int64
	for id, r := range m.responses {
		if r.FormID == formID {
			delete(m.responses, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrConflict
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

var errBoom = errors.New("boom")

// newTestService returns a service with sequential ids (id-1, id-2, ...).
func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(store, store)
	svc.newID = func() string {
		store.seq++
		return "id-" + strconv.Itoa(store.seq)
	}
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, store
}
