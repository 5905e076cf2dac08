package core

import (
	"reflect"
	"testing"
)

func TestNewRow(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		record []string
		want   []Field
	}{
		{
			name:   "full record",
			header: []string{"a", "b"},
			record: []string{"1", "2"},
			want:   []Field{{"a", "1"}, {"b", "2"}},
		},
		{
			name:   "short record leaves trailing fields absent",
			header: []string{"a", "b", "c"},
			record: []string{"1"},
			want:   []Field{{"a", "1"}},
		},
		{
			name:   "long record drops extra values",
			header: []string{"a"},
			record: []string{"1", "2"},
			want:   []Field{{"a", "1"}},
		},
		{
			name:   "repeated name keeps first position and last value",
			header: []string{"a", "b", "a"},
			record: []string{"1", "2", "3"},
			want:   []Field{{"a", "3"}, {"b", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRow(tt.header, tt.record).Fields()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewRow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRow_WithDoesNotModifyOriginal(t *testing.T) {
	orig := NewRow([]string{"a"}, []string{"1"})
	next := orig.With("a", "2").With("b", "3")

	if v, _ := orig.Get("a"); v != "1" {
		t.Errorf("original a = %q, want %q", v, "1")
	}
	if _, ok := orig.Get("b"); ok {
		t.Error("original gained field b")
	}
	if v, _ := next.Get("a"); v != "2" {
		t.Errorf("next a = %q, want %q", v, "2")
	}
	if next.Len() != 2 {
		t.Errorf("next Len = %d, want 2", next.Len())
	}
}

func TestRowFromMap(t *testing.T) {
	r := RowFromMap(map[string]string{"x": "1", "y": "2"}, "y", "x", "missing")

	want := []Field{{"y", "2"}, {"x", "1"}}
	if got := r.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestSmashCase(t *testing.T) {
	r := NewRow([]string{"Street", "NUMBER", "x"}, []string{"Main ST", "12", "-1"})
	got := SmashCase(r)

	want := map[string]string{"street": "Main ST", "number": "12", "x": "-1"}
	if !reflect.DeepEqual(got.Map(), want) {
		t.Errorf("SmashCase() = %v, want %v", got.Map(), want)
	}
	if _, ok := r.Get("Street"); !ok {
		t.Error("SmashCase modified its input")
	}
}

func TestSmashCase_Idempotent(t *testing.T) {
	rows := []Row{
		NewRow([]string{"A", "b", "Ünï"}, []string{"1", "2", "3"}),
		NewRow([]string{"X", "x"}, []string{"first", "second"}),
		NewRow(nil, nil),
	}
	for _, r := range rows {
		once := SmashCase(r)
		twice := SmashCase(once)
		if !reflect.DeepEqual(once.Fields(), twice.Fields()) {
			t.Errorf("SmashCase not idempotent: %v vs %v", once.Fields(), twice.Fields())
		}
	}
}

// Len returns the number of fields.
func (r Row) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the fields in order.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map returns the row as a plain map.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value
	}
	return m
}
