package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the "db" tag names of T in field order, descending
// into embedded structs. Fields tagged "-" or untagged are skipped.
// Repositories call it once at construction to build their column lists.
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := typeMeta(reflect.TypeOf(zero))
	cols := make([]string, len(meta))
	for i, f := range meta {
		cols[i] = f.column
	}
	return cols
}

type columnField struct {
	column string
	index  []int
}

var typeCache sync.Map // map[reflect.Type][]columnField

func typeMeta(t reflect.Type) []columnField {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]columnField)
	}

	var fields []columnField
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, &fields)
	}
	typeCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int, out *[]columnField) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, index, out)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		*out = append(*out, columnField{column: tag, index: index})
	}
}

// StructToMap converts a struct (or pointer to one) into column -> value using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := typeMeta(rv.Type())
	res := make(map[string]any, len(meta))
	for _, f := range meta {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// Columns returns only the listed columns of row, in a new map.
func Columns(row map[string]any, cols []string, skip ...string) map[string]any {
	out := make(map[string]any, len(cols))
next:
	for _, col := range cols {
		for _, s := range skip {
			if s == col {
				continue next
			}
		}
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}
