package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/survey"
)

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path and
// brings its schema up to date.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err := migrateDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

const formColumns = `id, owner_id, title, description, fields, created_at, updated_at`

func scanForm(row scanner) (*model.Form, error) {
	var f model.Form
	var fields string
	err := row.Scan(&f.ID, &f.OwnerID, &f.Title, &f.Description, &fields, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &f.Fields); err != nil {
		return nil, fmt.Errorf("parse fields of form %s: %w", f.ID, err)
	}
	if f.Fields == nil {
		f.Fields = []model.FieldDefinition{}
	}
	return &f, nil
}

const responseColumns = `id, form_id, user_id, answers, created_at, updated_at`

func scanResponse(row scanner) (*model.Response, error) {
	var r model.Response
	var userID sql.NullString
	var answers string
	err := row.Scan(&r.ID, &r.FormID, &userID, &answers, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		r.UserID = &userID.String
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("parse answers of response %s: %w", r.ID, err)
	}
	return &r, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return survey.ErrNotFound
	}
	return err
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return survey.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) FindFormByID(ctx context.Context, id string) (*model.Form, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM form WHERE id = ?`, id)
	form, err := scanForm(row)
	return form, notFound(err)
}

func (s *SQLiteStore) FindFormsByOwner(ctx context.Context, ownerID string) ([]model.Form, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+formColumns+`
		FROM form
		WHERE owner_id = ?
		ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *form)
	}
	return forms, rows.Err()
}

func (s *SQLiteStore) InsertForm(ctx context.Context, form *model.Form) error {
	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form (id, owner_id, title, description, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		form.ID, form.OwnerID, form.Title, form.Description, string(fields), form.CreatedAt, form.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) UpdateForm(ctx context.Context, form *model.Form) error {
	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE form
		SET
			title = ?,
			description = ?,
			fields = ?,
			updated_at = ?
		WHERE id = ?`,
		form.Title, form.Description, string(fields), form.UpdatedAt, form.ID,
	)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (s *SQLiteStore) DeleteForm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (s *SQLiteStore) FindResponseByID(ctx context.Context, id string) (*model.Response, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+responseColumns+` FROM response WHERE id = ?`, id)
	resp, err := scanResponse(row)
	return resp, notFound(err)
}

func (s *SQLiteStore) queryResponses(ctx context.Context, query string, args ...any) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, rows.Err()
}

func (s *SQLiteStore) FindResponsesByFormID(ctx context.Context, formID string) ([]model.Response, error) {
	return s.queryResponses(ctx, `
		SELECT `+responseColumns+`
		FROM response
		WHERE form_id = ?
		ORDER BY created_at, id`,
		formID,
	)
}

func (s *SQLiteStore) FindResponsesPage(ctx context.Context, formID string, offset, limit int) ([]model.Response, error) {
	return s.queryResponses(ctx, `
		SELECT `+responseColumns+`
		FROM response
		WHERE form_id = ?
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`,
		formID, limit, offset,
	)
}

func (s *SQLiteStore) CountResponsesByFormID(ctx context.Context, formID string) (n int64, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM response WHERE form_id = ?`, formID).Scan(&n)
	return
}

func (s *SQLiteStore) InsertResponse(ctx context.Context, resp *model.Response) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO response (id, form_id, user_id, answers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		resp.ID, resp.FormID, resp.UserID, string(answers), resp.CreatedAt, resp.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) UpdateResponseAnswers(ctx context.Context, id string, answers []model.Answer, updatedAt time.Time) (*model.Response, error) {
	answersJson, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE response
		SET
			answers = ?,
			updated_at = ?
		WHERE id = ?`,
		string(answersJson), updatedAt, id,
	)
	if err != nil {
		return nil, err
	}
	if err := affectedOne(res); err != nil {
		return nil, err
	}
	return s.FindResponseByID(ctx, id)
}

func (s *SQLiteStore) DeleteResponse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (s *SQLiteStore) DeleteResponsesByFormID(ctx context.Context, formID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response WHERE form_id = ?`, formID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) InsertUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return survey.ErrConflict
	}
	return err
}

func (s *SQLiteStore) findUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := s.db.
		QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM user WHERE `+where+` = ?`, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "email", email)
}

func (s *SQLiteStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "id", id)
}

func (s *SQLiteStore) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		username,
		tokenID,
		refreshTokenID,
		expiration,
	)
	return err
}

// ConsumeToken deletes the matching refresh token and returns its expiration.
func (s *SQLiteStore) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, err
	}
	defer tx.Rollback()

	var expiration time.Time
	err = tx.
		QueryRowContext(ctx, `
			SELECT expiration FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?`,
			username,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration)
	if err != nil {
		return time.Time{}, notFound(err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		username,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		return time.Time{}, err
	}
	return expiration, tx.Commit()
}
