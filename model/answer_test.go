package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAnswerValueDecodesScalarAndList(t *testing.T) {
	var a Answer
	err := json.Unmarshal([]byte(`{"questionLabel":"Color","questionType":"radio","options":["Red"],"answer":"Red"}`), &a)
	if err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if a.Answer.IsMulti() || a.Answer.Scalar() != "Red" {
		t.Fatalf("want scalar Red, got %+v", a.Answer)
	}

	err = json.Unmarshal([]byte(`{"questionLabel":"Pets","questionType":"checkbox","answer":["A","B"]}`), &a)
	if err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !a.Answer.IsMulti() || !reflect.DeepEqual(a.Answer.Values(), []string{"A", "B"}) {
		t.Fatalf("want list [A B], got %+v", a.Answer)
	}
}

func TestAnswerValueRejectsOtherShapes(t *testing.T) {
	var v AnswerValue
	if err := json.Unmarshal([]byte(`{"x":1}`), &v); err == nil {
		t.Fatal("expected error for object answer")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Fatal("expected error for numeric list")
	}
}

func TestAnswerValueEmptiness(t *testing.T) {
	var v AnswerValue
	if err := json.Unmarshal([]byte(`null`), &v); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !v.IsEmpty() {
		t.Error("null answer should be empty")
	}
	if !Multi().IsEmpty() || !Scalar("").IsEmpty() {
		t.Error("empty list and empty string should be empty")
	}
	if Scalar("x").IsEmpty() {
		t.Error("scalar x should not be empty")
	}

	out, err := json.Marshal(Multi("A"))
	if err != nil || string(out) != `["A"]` {
		t.Errorf("marshal list: got %s, %v", out, err)
	}
}

func TestFieldTypeAlias(t *testing.T) {
	var f FieldDefinition
	if err := json.Unmarshal([]byte(`{"type":"multiple choice","label":"Q"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Type != MultipleChoice {
		t.Errorf("want %q, got %q", MultipleChoice, f.Type)
	}
	if !f.Type.HasOptions() || Text.HasOptions() {
		t.Error("HasOptions mismatch")
	}
	if _, ok := ParseFieldType("dropdown"); ok {
		t.Error("dropdown should not parse")
	}
}
