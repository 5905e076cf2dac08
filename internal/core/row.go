package core

import "strings"

// Field is one name/value pair of a Row.
type Field struct {
	Name  string
	Value string
}

// Row is an ordered field mapping passed between pipeline stages.
// Stages never modify a Row in place; With and SmashCase return new values.
type Row struct {
	fields []Field
	index  map[string]int
}

// NewRow builds a row from a CSV header and one record. Records shorter
// than the header leave the trailing fields absent; extra values are dropped.
// A repeated header name keeps its first position and its last value.
func NewRow(header, record []string) Row {
	r := Row{
		fields: make([]Field, 0, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		if i >= len(record) {
			break
		}
		r.set(name, record[i])
	}
	return r
}

// RowFromMap builds a row from a map. Field order follows the keys slice
// when given, otherwise map iteration order.
func RowFromMap(m map[string]string, keys ...string) Row {
	if len(keys) == 0 {
		keys = make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
	}
	r := Row{
		fields: make([]Field, 0, len(keys)),
		index:  make(map[string]int, len(keys)),
	}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			r.set(k, v)
		}
	}
	return r
}

func (r *Row) set(name, value string) {
	if pos, ok := r.index[name]; ok {
		r.fields[pos].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get looks up a field by exact name. The boolean is false when absent.
func (r Row) Get(name string) (string, bool) {
	pos, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.fields[pos].Value, true
}

// With returns a copy of r with name set to value.
func (r Row) With(name, value string) Row {
	out := r.clone()
	out.set(name, value)
	return out
}

func (r Row) clone() Row {
	out := Row{
		fields: make([]Field, len(r.fields), len(r.fields)+2),
		index:  make(map[string]int, len(r.fields)+2),
	}
	copy(out.fields, r.fields)
	for k, v := range r.index {
		out.index[k] = v
	}
	return out
}

// SmashCase returns a row whose keys are lower-cased. Values are untouched.
// Keys that collide after lower-casing keep the last value.
func SmashCase(r Row) Row {
	out := Row{
		fields: make([]Field, 0, len(r.fields)),
		index:  make(map[string]int, len(r.fields)),
	}
	for _, f := range r.fields {
		out.set(strings.ToLower(f.Name), f.Value)
	}
	return out
}
