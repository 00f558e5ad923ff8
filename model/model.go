package model

import (
	"encoding/json"
	"strings"
	"time"
)

type FieldType string

const (
	Text           FieldType = "text"
	TextArea       FieldType = "textarea"
	Checkbox       FieldType = "checkbox"
	Radio          FieldType = "radio"
	MultipleChoice FieldType = "multiple_choice"
	File           FieldType = "file"
	Image          FieldType = "image"
)

var fieldTypes = map[FieldType]bool{
	Text:           true,
	TextArea:       true,
	Checkbox:       true,
	Radio:          true,
	MultipleChoice: true,
	File:           true,
	Image:          true,
}

// ParseFieldType normalizes a field type as sent by clients.
// "multiple choice" is accepted as an alias of multiple_choice.
func ParseFieldType(s string) (FieldType, bool) {
	t := FieldType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	return t, fieldTypes[t]
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, ok := ParseFieldType(s); ok {
		*t = parsed
	} else {
		*t = FieldType(s)
	}
	return nil
}

// HasOptions reports whether fields of this type carry a list of choices.
func (t FieldType) HasOptions() bool {
	switch t {
	case Checkbox, Radio, MultipleChoice:
		return true
	}
	return false
}

type Form struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Fields      []FieldDefinition `json:"fields"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type FieldDefinition struct {
	Type      FieldType `json:"type"`
	Label     string    `json:"label"`
	Options   []Option  `json:"options,omitempty"`
	Mandatory bool      `json:"mandatory"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Response struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	UserID    *string   `json:"userId"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Answer struct {
	QuestionLabel string      `json:"questionLabel"`
	QuestionType  FieldType   `json:"questionType"`
	Options       []string    `json:"options,omitempty"`
	Answer        AnswerValue `json:"answer"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
