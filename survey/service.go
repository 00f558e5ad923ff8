package survey

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"golang.org/x/crypto/bcrypt"
)

// Principal identifies the authenticated caller by user id.
// The zero value is the anonymous caller.
type Principal string

const Anonymous Principal = ""

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Service struct {
	store Store
	users UserStore
	now   func() time.Time
	newID func() string
}

func NewService(store Store, users UserStore) *Service {
	return &Service{
		store: store,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func requirePrincipal(op string, p Principal) error {
	if p == Anonymous {
		return permissionf(op, "authentication required")
	}
	return nil
}

func (s *Service) findForm(ctx context.Context, op, id string) (*model.Form, error) {
	form, err := s.store.FindFormByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(op, "form", id)
	}
	return form, err
}

func (s *Service) findResponse(ctx context.Context, op, id string) (*model.Response, error) {
	resp, err := s.store.FindResponseByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(op, "response", id)
	}
	return resp, err
}

func (s *Service) CreateForm(ctx context.Context, p Principal, form model.Form) (*model.Form, error) {
	const op = "create_form"
	if err := requirePrincipal(op, p); err != nil {
		return nil, err
	}

	NormalizeForm(&form)
	if err := ValidateForm(&form); err != nil {
		return nil, err
	}

	now := s.now()
	form.ID = s.newID()
	form.OwnerID = string(p)
	form.CreatedAt = now
	form.UpdatedAt = now
	if err := s.store.InsertForm(ctx, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

func (s *Service) ListForms(ctx context.Context, p Principal) ([]model.Form, error) {
	if err := requirePrincipal("list_forms", p); err != nil {
		return nil, err
	}
	return s.store.FindFormsByOwner(ctx, string(p))
}

func (s *Service) GetForm(ctx context.Context, id string) (*model.Form, error) {
	return s.findForm(ctx, "get_form", id)
}

// UpdateForm applies patch to the form: an empty title or description and
// a nil field list keep the stored value.
func (s *Service) UpdateForm(ctx context.Context, p Principal, id string, patch model.Form) (*model.Form, error) {
	const op = "update_form"
	if err := requirePrincipal(op, p); err != nil {
		return nil, err
	}

	form, err := s.findForm(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if form.OwnerID != string(p) {
		return nil, permissionf(op, "not authorized to update this form")
	}

	if strings.TrimSpace(patch.Title) != "" {
		form.Title = patch.Title
	}
	if strings.TrimSpace(patch.Description) != "" {
		form.Description = patch.Description
	}
	if patch.Fields != nil {
		form.Fields = patch.Fields
	}

	NormalizeForm(form)
	if err := ValidateForm(form); err != nil {
		return nil, err
	}

	form.UpdatedAt = s.now()
	if err := s.store.UpdateForm(ctx, form); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(op, "form", id)
		}
		return nil, err
	}
	return form, nil
}

// DeleteForm removes every response of the form, then the form itself.
// The form is left untouched if its responses cannot be removed.
func (s *Service) DeleteForm(ctx context.Context, p Principal, id string) error {
	const op = "delete_form"
	if err := requirePrincipal(op, p); err != nil {
		return err
	}

	form, err := s.findForm(ctx, op, id)
	if err != nil {
		return err
	}
	if form.OwnerID != string(p) {
		return permissionf(op, "not authorized to delete this form")
	}

	n, err := s.store.DeleteResponsesByFormID(ctx, id)
	if err != nil {
		return integrity(op, "could not delete responses", err)
	}
	log.Debugf("%s: removed %d responses of form %s", op, n, id)

	err = s.store.DeleteForm(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		// already gone
	case err != nil:
		return integrity(op, "responses deleted but form removal failed", err)
	}
	return nil
}

func (s *Service) SubmitResponse(ctx context.Context, p Principal, formID string, answers []model.Answer) (*model.Response, error) {
	const op = "submit_response"

	form, err := s.findForm(ctx, op, formID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnswers(form.Fields, answers); err != nil {
		return nil, err
	}

	now := s.now()
	resp := &model.Response{
		ID:        s.newID(),
		FormID:    form.ID,
		Answers:   answers,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p != Anonymous {
		userID := string(p)
		resp.UserID = &userID
	}
	if err := s.store.InsertResponse(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type ResponsePage struct {
	Responses  []model.Response `json:"responses"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
	HasNext    bool             `json:"hasNextPage"`
	HasPrev    bool             `json:"hasPrevPage"`
}

func (s *Service) ListResponses(ctx context.Context, formID string, page, limit int) (*ResponsePage, error) {
	const op = "list_responses"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	if _, err := s.findForm(ctx, op, formID); err != nil {
		return nil, err
	}

	total, err := s.store.CountResponsesByFormID(ctx, formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.FindResponsesPage(ctx, formID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if responses == nil {
		responses = []model.Response{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ResponsePage{
		Responses:  responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// canEditResponse allows the response author and the owner of its form.
// The form is nil when the response outlived it.
func (s *Service) canEditResponse(ctx context.Context, p Principal, resp *model.Response) (*model.Form, bool, error) {
	form, err := s.store.FindFormByID(ctx, resp.FormID)
	switch {
	case errors.Is(err, ErrNotFound):
		form = nil
	case err != nil:
		return nil, false, err
	}
	if resp.UserID != nil && *resp.UserID == string(p) {
		return form, true, nil
	}
	return form, form != nil && form.OwnerID == string(p), nil
}

func (s *Service) UpdateResponse(ctx context.Context, p Principal, id string, answers []model.Answer) (*model.Response, error) {
	const op = "update_response"
	if err := requirePrincipal(op, p); err != nil {
		return nil, err
	}

	resp, err := s.findResponse(ctx, op, id)
	if err != nil {
		return nil, err
	}
	form, ok, err := s.canEditResponse(ctx, p, resp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, permissionf(op, "not authorized to update this response")
	}

	var fields []model.FieldDefinition
	if form != nil {
		fields = form.Fields
	}
	if err := ValidateAnswers(fields, answers); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateResponseAnswers(ctx, id, answers, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(op, "response", id)
	}
	return updated, err
}

func (s *Service) DeleteResponse(ctx context.Context, p Principal, id string) error {
	const op = "delete_response"
	if err := requirePrincipal(op, p); err != nil {
		return err
	}

	resp, err := s.findResponse(ctx, op, id)
	if err != nil {
		return err
	}
	_, ok, err := s.canEditResponse(ctx, p, resp)
	if err != nil {
		return err
	}
	if !ok {
		return permissionf(op, "not authorized to delete this response")
	}

	err = s.store.DeleteResponse(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return notFound(op, "response", id)
	}
	return err
}

// Results recomputes the aggregation of a form from all its responses.
func (s *Service) Results(ctx context.Context, formID string) (*Result, error) {
	const op = "results"

	form, err := s.findForm(ctx, op, formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.FindResponsesByFormID(ctx, formID)
	if err != nil {
		return nil, err
	}
	return Aggregate(form, responses)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Service) Register(ctx context.Context, creds Credentials) (*model.User, error) {
	const op = "register"

	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := ValidateStruct(op, creds); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           s.newID(),
		Email:        creds.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	err = s.users.InsertUser(ctx, user)
	if errors.Is(err, ErrConflict) {
		return nil, &Error{Kind: KindConflict, Op: op, Msg: "user already exists"}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, p Principal) (*model.User, error) {
	const op = "me"
	if err := requirePrincipal(op, p); err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, string(p))
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(op, "user", string(p))
	}
	return user, err
}

func (s *Service) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("user_by_email", "user", email)
	}
	return user, err
}
