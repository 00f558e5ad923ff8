package survey

import (
	"errors"
	"strings"
	"testing"

	"github.com/mbolis/quick-forms/model"
)

func TestValidateAnswersRejectsEmptyList(t *testing.T) {
	err := ValidateAnswers(nil, []model.Answer{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestValidateAnswersRejectsMissingAnswer(t *testing.T) {
	err := ValidateAnswers(nil, []model.Answer{{QuestionLabel: "Name", QuestionType: model.Text}})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "answer is required") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateAnswersCases(t *testing.T) {
	cases := []struct {
		name   string
		answer model.Answer
		ok     bool
	}{
		{"text", model.Answer{QuestionLabel: "Name", QuestionType: model.Text, Answer: model.Scalar("Ann")}, true},
		{"missing type", model.Answer{QuestionLabel: "Name", Answer: model.Scalar("Ann")}, false},
		{"missing label", model.Answer{QuestionType: model.Text, Answer: model.Scalar("Ann")}, false},
		{"unknown type", model.Answer{QuestionLabel: "Name", QuestionType: "slider", Answer: model.Scalar("3")}, false},
		{"empty list", model.Answer{QuestionLabel: "Pets", QuestionType: model.Checkbox, Options: []string{"Cat"}, Answer: model.Multi()}, false},
		{"choice without options", model.Answer{QuestionLabel: "Color", QuestionType: model.Radio, Answer: model.Scalar("Red")}, false},
		{"checkbox", model.Answer{QuestionLabel: "Pets", QuestionType: model.Checkbox, Options: []string{"Cat", "Dog"}, Answer: model.Multi("Cat", "Dog")}, true},
		{"file path", model.Answer{QuestionLabel: "CV", QuestionType: model.File, Answer: model.Scalar("/uploads/cv.pdf")}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateAnswers(nil, []model.Answer{c.answer})
			if c.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestValidateAnswersIgnoresMandatoryFields(t *testing.T) {
	fields := []model.FieldDefinition{
		{Type: model.Text, Label: "Name", Mandatory: true},
		{Type: model.Text, Label: "Email", Mandatory: true},
	}
	answers := []model.Answer{{QuestionLabel: "Name", QuestionType: model.Text, Answer: model.Scalar("Ann")}}
	if err := ValidateAnswers(fields, answers); err != nil {
		t.Fatalf("missing mandatory answers must not be rejected: %v", err)
	}
}

func validForm() model.Form {
	return model.Form{
		Title:       "Survey",
		Description: "About colors",
		Fields: []model.FieldDefinition{
			{Type: model.Radio, Label: "Color", Options: []model.Option{{Label: "Red"}, {Value: "Blue"}}},
			{Type: model.Text, Label: "Why"},
		},
	}
}

func TestNormalizeFormDefaultsOptions(t *testing.T) {
	form := validForm()
	form.Fields[1].Options = []model.Option{{Label: "stray"}}
	NormalizeForm(&form)

	opts := form.Fields[0].Options
	if opts[0].Value != "Red" || opts[1].Label != "Blue" {
		t.Errorf("option defaults not applied: %+v", opts)
	}
	if form.Fields[1].Options != nil {
		t.Errorf("text field kept options: %+v", form.Fields[1].Options)
	}
	if err := ValidateForm(&form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFormRejects(t *testing.T) {
	cases := map[string]func(f *model.Form){
		"no title":            func(f *model.Form) { f.Title = "" },
		"no description":      func(f *model.Form) { f.Description = "" },
		"no fields":           func(f *model.Form) { f.Fields = nil },
		"empty label":         func(f *model.Form) { f.Fields[1].Label = "" },
		"unknown type":        func(f *model.Form) { f.Fields[1].Type = "slider" },
		"radio no options":    func(f *model.Form) { f.Fields[0].Options = nil },
		"blank option":        func(f *model.Form) { f.Fields[0].Options[0] = model.Option{} },
		"text carries option": func(f *model.Form) { f.Fields[1].Options = []model.Option{{Label: "x", Value: "x"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			form := validForm()
			form.Fields[0].Options = []model.Option{{Label: "Red", Value: "Red"}, {Label: "Blue", Value: "Blue"}}
			mutate(&form)
			if err := ValidateForm(&form); !errors.Is(err, ErrValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	err := ValidateStruct("register", Credentials{Email: "nope", Password: "secret1"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "email must be a valid e-mail address") {
		t.Errorf("unexpected message: %v", err)
	}
}
