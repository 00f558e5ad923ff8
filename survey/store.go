package survey

import (
	"context"
	"time"

	"github.com/mbolis/quick-forms/model"
)

// Store persists forms and their responses. Lookups of a missing id
// return an error matching ErrNotFound.
type Store interface {
	FindFormByID(ctx context.Context, id string) (*model.Form, error)
	FindFormsByOwner(ctx context.Context, ownerID string) ([]model.Form, error)
	InsertForm(ctx context.Context, form *model.Form) error
	UpdateForm(ctx context.Context, form *model.Form) error
	DeleteForm(ctx context.Context, id string) error

	FindResponseByID(ctx context.Context, id string) (*model.Response, error)
	FindResponsesByFormID(ctx context.Context, formID string) ([]model.Response, error)
	FindResponsesPage(ctx context.Context, formID string, offset, limit int) ([]model.Response, error)
	CountResponsesByFormID(ctx context.Context, formID string) (int64, error)
	InsertResponse(ctx context.Context, resp *model.Response) error
	UpdateResponseAnswers(ctx context.Context, id string, answers []model.Answer, updatedAt time.Time) (*model.Response, error)
	DeleteResponse(ctx context.Context, id string) error
	DeleteResponsesByFormID(ctx context.Context, formID string) (int64, error)
}

// UserStore persists accounts. InsertUser returns an error matching
// ErrConflict when the e-mail is taken.
type UserStore interface {
	InsertUser(ctx context.Context, user *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}
