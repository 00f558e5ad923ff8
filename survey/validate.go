package survey

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mbolis/quick-forms/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct checks v against its `validate` tags and reports the
// first violation as a validation error.
func ValidateStruct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindValidation, Op: op, Err: err}
	}
	return &Error{Kind: KindValidation, Op: op, Msg: describe(verrs[0])}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid e-mail address"
	case "min":
		return fmt.Sprintf("%s must be at least %s long", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}

type answerInput struct {
	QuestionLabel string `json:"questionLabel" validate:"required"`
	QuestionType  string `json:"questionType" validate:"required"`
}

// ValidateAnswers checks a candidate response before it is stored.
//
// Answers are not matched against fields: mandatory fields and the echoed
// question types are enforced by the client only.
func ValidateAnswers(fields []model.FieldDefinition, answers []model.Answer) error {
	const op = "validate_answers"

	if len(answers) == 0 {
		return validationf(op, "answers must be a non-empty list")
	}

	for i, a := range answers {
		err := ValidateStruct(op, answerInput{
			QuestionLabel: a.QuestionLabel,
			QuestionType:  string(a.QuestionType),
		})
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf("answers[%d]: %s", i, err.(*Error).Msg)}
		}
		if a.Answer.IsEmpty() {
			return validationf(op, "answers[%d]: answer is required", i)
		}
		t, ok := model.ParseFieldType(string(a.QuestionType))
		if !ok {
			return validationf(op, "answers[%d]: unknown questionType %q", i, a.QuestionType)
		}
		if t.HasOptions() && len(a.Options) == 0 {
			return validationf(op, "answers[%d]: options are required for %s questions", i, t)
		}
	}
	return nil
}

type formInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type fieldInput struct {
	Type  string `json:"type" validate:"required"`
	Label string `json:"label" validate:"required"`
}

// NormalizeForm fills option labels and values from each other, drops
// options from fields that cannot carry them and never leaves Fields nil.
func NormalizeForm(form *model.Form) {
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	if form.Fields == nil {
		form.Fields = []model.FieldDefinition{}
	}
	for i := range form.Fields {
		f := &form.Fields[i]
		f.Label = strings.TrimSpace(f.Label)
		if t, ok := model.ParseFieldType(string(f.Type)); ok {
			f.Type = t
		}
		if !f.Type.HasOptions() {
			f.Options = nil
			continue
		}
		for j := range f.Options {
			o := &f.Options[j]
			if o.Label == "" {
				o.Label = o.Value
			}
			if o.Value == "" {
				o.Value = o.Label
			}
		}
	}
}

// ValidateForm checks a normalized form definition.
func ValidateForm(form *model.Form) error {
	const op = "validate_form"

	if form == nil {
		return validationf(op, "form is required")
	}
	if err := ValidateStruct(op, formInput{Title: form.Title, Description: form.Description}); err != nil {
		return err
	}
	if form.Fields == nil {
		return validationf(op, "fields is required")
	}

	for i, f := range form.Fields {
		err := ValidateStruct(op, fieldInput{Type: string(f.Type), Label: f.Label})
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf("fields[%d]: %s", i, err.(*Error).Msg)}
		}
		if _, ok := model.ParseFieldType(string(f.Type)); !ok {
			return validationf(op, "fields[%d]: unknown type %q", i, f.Type)
		}
		if !f.Type.HasOptions() {
			if len(f.Options) > 0 {
				return validationf(op, "fields[%d]: %s fields take no options", i, f.Type)
			}
			continue
		}
		if len(f.Options) == 0 {
			return validationf(op, "fields[%d]: options are required for %s fields", i, f.Type)
		}
		for j, o := range f.Options {
			if o.Label == "" && o.Value == "" {
				return validationf(op, "fields[%d].options[%d]: label is required", i, j)
			}
		}
	}
	return nil
}
