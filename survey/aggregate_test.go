package survey

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mbolis/quick-forms/model"
)

func colorForm() *model.Form {
	return &model.Form{
		ID: "f1",
		Fields: []model.FieldDefinition{
			{Type: model.Radio, Label: "Color", Options: []model.Option{{Label: "Red", Value: "Red"}, {Label: "Blue", Value: "Blue"}}},
		},
	}
}

func answerResponse(answers ...model.Answer) model.Response {
	return model.Response{FormID: "f1", Answers: answers}
}

func radio(label, value string) model.Answer {
	return model.Answer{QuestionLabel: label, QuestionType: model.Radio, Options: []string{value}, Answer: model.Scalar(value)}
}

func tallyOf(t *testing.T, res *Result, question string) map[string]TallyEntry {
	t.Helper()
	for _, q := range res.Questions {
		if q.QuestionLabel == question {
			m := map[string]TallyEntry{}
			for _, e := range q.Tally {
				m[e.Option] = e
			}
			return m
		}
	}
	t.Fatalf("question %q not in result", question)
	return nil
}

func TestAggregateNoResponses(t *testing.T) {
	res, err := Aggregate(colorForm(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalResponses != 0 {
		t.Errorf("total = %d, want 0", res.TotalResponses)
	}
	for _, e := range res.Questions[0].Tally {
		if e.Count != 0 || e.Percentage != 0 {
			t.Errorf("option %s: count=%d pct=%v, want zeros", e.Option, e.Count, e.Percentage)
		}
	}
	if len(res.Questions[0].Tally) != 2 {
		t.Errorf("declared options not seeded: %+v", res.Questions[0].Tally)
	}
}

func TestAggregateRedBlue(t *testing.T) {
	responses := []model.Response{
		answerResponse(radio("Color", "Red")),
		answerResponse(radio("Color", "Blue")),
	}
	res, err := Aggregate(colorForm(), responses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tally := tallyOf(t, res, "Color")
	for _, opt := range []string{"Red", "Blue"} {
		if tally[opt].Count != 1 || tally[opt].Percentage != 50.00 {
			t.Errorf("%s: got %+v, want count=1 pct=50", opt, tally[opt])
		}
	}
}

func TestAggregateUnknownOptionGetsBucket(t *testing.T) {
	res, err := Aggregate(colorForm(), []model.Response{answerResponse(radio("Color", "Green"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tally := tallyOf(t, res, "Color")
	if tally["Green"].Count != 1 || tally["Green"].Percentage != 100 {
		t.Errorf("Green: got %+v", tally["Green"])
	}
	order := []string{}
	for _, e := range res.Questions[0].Tally {
		order = append(order, e.Option)
	}
	if !reflect.DeepEqual(order, []string{"Red", "Blue", "Green"}) {
		t.Errorf("tally order = %v", order)
	}
}

func TestAggregateCheckboxCountsEveryElement(t *testing.T) {
	form := &model.Form{Fields: []model.FieldDefinition{
		{Type: model.Checkbox, Label: "Letters", Options: []model.Option{{Label: "A"}, {Label: "B"}, {Label: "C"}}},
	}}
	checkbox := model.Answer{QuestionLabel: "Letters", QuestionType: model.Checkbox, Options: []string{"A", "B"}, Answer: model.Multi("A", "B")}

	before, _ := Aggregate(form, []model.Response{answerResponse(radio("Letters", "C"))})
	after, err := Aggregate(form, []model.Response{answerResponse(radio("Letters", "C")), answerResponse(checkbox)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, a := tallyOf(t, before, "Letters"), tallyOf(t, after, "Letters")
	want := map[string]int{"A": 1, "B": 1, "C": 0}
	for opt, delta := range want {
		if a[opt].Count-b[opt].Count != delta {
			t.Errorf("%s: delta %d, want %d", opt, a[opt].Count-b[opt].Count, delta)
		}
	}
	if len(a) != 3 {
		t.Errorf("unexpected buckets: %+v", a)
	}
}

func TestAggregateIgnoresUnmatchedAndEmptyAnswers(t *testing.T) {
	responses := []model.Response{
		answerResponse(radio("Colour", "Red")),
		answerResponse(model.Answer{QuestionLabel: "Color", QuestionType: model.Radio, Answer: model.Scalar("")}),
		answerResponse(model.Answer{QuestionLabel: "Color", QuestionType: model.Checkbox, Answer: model.Multi("", "Blue")}),
	}
	res, err := Aggregate(colorForm(), responses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tally := tallyOf(t, res, "Color")
	if tally["Red"].Count != 0 || tally["Blue"].Count != 1 || len(tally) != 2 {
		t.Errorf("unexpected tally: %+v", tally)
	}
	if tally["Blue"].Percentage != 33.33 {
		t.Errorf("Blue pct = %v, want 33.33", tally["Blue"].Percentage)
	}
}

func TestAggregateFreeTextBuildsDynamicTally(t *testing.T) {
	form := &model.Form{Fields: []model.FieldDefinition{{Type: model.Text, Label: "Name"}}}
	text := func(v string) model.Answer {
		return model.Answer{QuestionLabel: "Name", QuestionType: model.Text, Answer: model.Scalar(v)}
	}
	res, err := Aggregate(form, []model.Response{answerResponse(text("Ann")), answerResponse(text("Bob")), answerResponse(text("Ann"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tally := tallyOf(t, res, "Name")
	if tally["Ann"].Count != 2 || tally["Ann"].Percentage != 66.67 || tally["Bob"].Count != 1 {
		t.Errorf("unexpected tally: %+v", tally)
	}
}

func TestAggregateChartSeries(t *testing.T) {
	form := &model.Form{Fields: []model.FieldDefinition{
		{Type: model.Radio, Label: "Q1", Options: []model.Option{{Label: "Yes"}, {Label: "No"}}},
		{Type: model.Radio, Label: "Q2", Options: []model.Option{{Label: "No"}, {Label: "Maybe"}}},
	}}
	res, err := Aggregate(form, []model.Response{
		answerResponse(radio("Q1", "Yes"), radio("Q2", "No")),
		answerResponse(radio("Q1", "No"), radio("Q2", "No")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(res.Chart.Labels, []string{"Q1", "Q2"}) {
		t.Errorf("labels = %v", res.Chart.Labels)
	}
	want := []Dataset{
		{Label: "Yes", Data: []int{1, 0}, BackgroundColor: Palette[0]},
		{Label: "No", Data: []int{1, 2}, BackgroundColor: Palette[1]},
		{Label: "Maybe", Data: []int{0, 0}, BackgroundColor: Palette[2]},
	}
	if !reflect.DeepEqual(res.Chart.Datasets, want) {
		t.Errorf("datasets = %+v\nwant %+v", res.Chart.Datasets, want)
	}

	pie := res.Questions[1].ChartSeries
	if !reflect.DeepEqual(pie.Labels, []string{"No", "Maybe"}) || !reflect.DeepEqual(pie.Data, []int{2, 0}) {
		t.Errorf("pie = %+v", pie)
	}
}

func TestPaletteWrapsAround(t *testing.T) {
	if paletteColor(len(Palette)) != Palette[0] || paletteColor(len(Palette)+2) != Palette[2] {
		t.Error("palette should wrap with modulo")
	}
}

func TestAggregateMalformedForm(t *testing.T) {
	if _, err := Aggregate(nil, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("nil form: want validation error, got %v", err)
	}
	if _, err := Aggregate(&model.Form{}, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("form without fields: want validation error, got %v", err)
	}
	if _, err := Aggregate(&model.Form{Fields: []model.FieldDefinition{}}, nil); err != nil {
		t.Errorf("empty field list should aggregate: %v", err)
	}
}
