package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the "db" tags of T in field order, descending into
// exported embedded structs. Repositories call it once per row type at init.
//
//	columns := ExtractDBColumns[accountRow]()
//	// ["account_code", "name", "normal_balance", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	return meta.columns()
}

// rowField is a tagged field of a row struct.
type rowField struct {
	index int
	tag   string
}

// rowMetadata is the cached layout of a row struct.
type rowMetadata struct {
	fields   []rowField
	embedded []int
	nested   []*rowMetadata
}

func (m *rowMetadata) columns() []string {
	cols := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		cols = append(cols, f.tag)
	}
	for _, n := range m.nested {
		cols = append(cols, n.columns()...)
	}
	return cols
}

var rowCache sync.Map // map[reflect.Type]*rowMetadata

func metadataOf(t reflect.Type) *rowMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := rowCache.Load(t); ok {
		return cached.(*rowMetadata)
	}

	meta := &rowMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				if !field.IsExported() {
					continue
				}
				meta.embedded = append(meta.embedded, i)
				meta.nested = append(meta.nested, metadataOf(field.Type))
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, rowField{index: i, tag: tag})
		}
	}

	actual, _ := rowCache.LoadOrStore(t, meta)
	return actual.(*rowMetadata)
}

// StructToMap converts a row struct to a column map for squirrel SetMap.
// Fields without a "db" tag, or tagged "-", are left out.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	fill(res, rv, metadataOf(rv.Type()))
	return res
}

func fill(dst map[string]any, rv reflect.Value, meta *rowMetadata) {
	for _, f := range meta.fields {
		dst[f.tag] = rv.Field(f.index).Interface()
	}
	for i, idx := range meta.embedded {
		ev := rv.Field(idx)
		if ev.Kind() == reflect.Ptr {
			if ev.IsNil() {
				continue
			}
			ev = ev.Elem()
		}
		fill(dst, ev, meta.nested[i])
	}
}
