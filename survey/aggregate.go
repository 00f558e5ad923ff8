package survey

import (
	"math"

	"github.com/mbolis/quick-forms/model"
)

// Palette is cycled through by series index when colouring charts.
var Palette = []string{
	"rgba(75, 192, 192, 0.6)",
	"rgba(255, 99, 132, 0.6)",
	"rgba(54, 162, 235, 0.6)",
	"rgba(255, 206, 86, 0.6)",
	"rgba(153, 102, 255, 0.6)",
}

func paletteColor(i int) string {
	return Palette[i%len(Palette)]
}

type TallyEntry struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PieSeries is the per-question chart: one slice per tally entry.
type PieSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
	Colors []string `json:"colors"`
}

type QuestionResult struct {
	QuestionLabel string          `json:"questionLabel"`
	QuestionType  model.FieldType `json:"questionType"`
	Tally         []TallyEntry    `json:"tally"`
	ChartSeries   PieSeries       `json:"chartSeries"`
}

type Dataset struct {
	Label           string `json:"label"`
	Data            []int  `json:"data"`
	BackgroundColor string `json:"backgroundColor"`
}

// BarChart groups bars by question label, one dataset per distinct option value.
type BarChart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Result struct {
	FormID         string           `json:"formId"`
	TotalResponses int              `json:"totalResponses"`
	Questions      []QuestionResult `json:"questions"`
	Chart          BarChart         `json:"chart"`
}

// tally counts values keeping first-seen order.
type tally struct {
	keys   []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: map[string]int{}}
}

func (t *tally) seed(key string) {
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
		t.counts[key] = 0
	}
}

func (t *tally) add(key string) {
	t.seed(key)
	t.counts[key]++
}

// Aggregate tallies every answer of responses against the fields of form.
//
// Answers are joined to fields by label; answers whose label matches no
// field are ignored, and values that are not declared options get their
// own bucket. Percentages are relative to the number of responses.
func Aggregate(form *model.Form, responses []model.Response) (*Result, error) {
	const op = "aggregate"

	if form == nil || form.Fields == nil {
		return nil, validationf(op, "form has no field list")
	}

	tallies := make([]*tally, len(form.Fields))
	byLabel := map[string][]int{}
	for i, f := range form.Fields {
		t := newTally()
		for _, o := range f.Options {
			t.seed(o.Label)
		}
		tallies[i] = t
		byLabel[f.Label] = append(byLabel[f.Label], i)
	}

	for _, r := range responses {
		for _, a := range r.Answers {
			for _, i := range byLabel[a.QuestionLabel] {
				for _, v := range a.Answer.Values() {
					if v == "" {
						continue
					}
					tallies[i].add(v)
				}
			}
		}
	}

	total := len(responses)
	result := &Result{
		FormID:         form.ID,
		TotalResponses: total,
		Questions:      make([]QuestionResult, len(form.Fields)),
		Chart: BarChart{
			Labels:   make([]string, len(form.Fields)),
			Datasets: []Dataset{},
		},
	}

	for i, f := range form.Fields {
		t := tallies[i]
		q := QuestionResult{
			QuestionLabel: f.Label,
			QuestionType:  f.Type,
			Tally:         make([]TallyEntry, len(t.keys)),
			ChartSeries: PieSeries{
				Labels: make([]string, len(t.keys)),
				Data:   make([]int, len(t.keys)),
				Colors: make([]string, len(t.keys)),
			},
		}
		for j, key := range t.keys {
			count := t.counts[key]
			q.Tally[j] = TallyEntry{Option: key, Count: count, Percentage: percentage(count, total)}
			q.ChartSeries.Labels[j] = key
			q.ChartSeries.Data[j] = count
			q.ChartSeries.Colors[j] = paletteColor(j)
		}
		result.Questions[i] = q
		result.Chart.Labels[i] = f.Label
	}

	series := newTally()
	for _, t := range tallies {
		for _, key := range t.keys {
			series.seed(key)
		}
	}
	for s, key := range series.keys {
		data := make([]int, len(tallies))
		for i, t := range tallies {
			data[i] = t.counts[key]
		}
		result.Chart.Datasets = append(result.Chart.Datasets, Dataset{
			Label:           key,
			Data:            data,
			BackgroundColor: paletteColor(s),
		})
	}

	return result, nil
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}
