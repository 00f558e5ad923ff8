package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// AnswerValue holds either a single string (text, radio, file path...)
// or a list of strings (checkbox).
type AnswerValue struct {
	scalar string
	multi  []string
	isList bool
}

func Scalar(s string) AnswerValue {
	return AnswerValue{scalar: s}
}

func Multi(values ...string) AnswerValue {
	if values == nil {
		values = []string{}
	}
	return AnswerValue{multi: values, isList: true}
}

func (v AnswerValue) IsMulti() bool {
	return v.isList
}

// Scalar returns the single value; empty for list answers.
func (v AnswerValue) Scalar() string {
	return v.scalar
}

// Values returns every value of the answer, in order.
func (v AnswerValue) Values() []string {
	if v.isList {
		return v.multi
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// IsEmpty reports whether the answer carries nothing: no value at all,
// an empty string or an empty list.
func (v AnswerValue) IsEmpty() bool {
	if v.isList {
		return len(v.multi) == 0
	}
	return v.scalar == ""
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		return json.Marshal(v.multi)
	}
	if v.scalar == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.scalar)
}

var errAnswerShape = errors.New("answer must be a string or a list of strings")

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = AnswerValue{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return errAnswerShape
		}
		*v = Multi(values...)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errAnswerShape
		}
		*v = Scalar(s)
		return nil
	}
}
