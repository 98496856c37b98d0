package rxscan

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// maxPlans bounds the plans cached by one struct mapper.
// The cache is reset when it is full.
const maxPlans = 64

// target is where one column of a row is scanned.
// A nil position discards the column.
type target struct {
	position []int
	init     [][]int
}

// StructMapper uses reflection to create a mapper for a struct type.
//
// Columns are bound to fields through the `db` tag (see [Column]): by
// 1-based index when the tag has an index option, and by label otherwise.
// Untagged fields use their snake_cased name as label. Nested structs are
// bound with their name as a prefix, joined by ".".
func StructMapper[T any](opts ...MappingOption) RowMapper[T] {
	var x T
	typ := reflect.TypeOf(x)

	isPointer, err := checks(typ)
	if err != nil {
		return errorMapper[T](err)
	}

	if isPointer {
		typ = typ.Elem()
	}

	s, err := newStructMapper(opts...)
	if err != nil {
		return errorMapper[T](err)
	}

	m, err := s.getMapping(typ)
	if err != nil {
		return errorMapper[T](err)
	}

	return func(r Rows, _ int) (T, error) {
		var t T

		cols, err := r.Columns()
		if err != nil {
			return t, err
		}

		targets, err := s.plan(m, cols)
		if err != nil {
			return t, err
		}

		row := reflect.New(typ).Elem()
		if err := r.Scan(scanTargets(row, targets)...); err != nil {
			return t, err
		}

		if isPointer {
			row = row.Addr()
		}

		return row.Interface().(T), nil
	}
}

// Check if there are any errors, and returns if it is a pointer or not
func checks(typ reflect.Type) (bool, error) {
	if typ == nil {
		return false, fmt.Errorf("Nil type passed to StructMapper")
	}

	var isPointer bool

	switch {
	case typ.Kind() == reflect.Struct:
	case typ.Kind() == reflect.Pointer:
		isPointer = true

		if typ.Elem().Kind() != reflect.Struct {
			return false, fmt.Errorf("Type %q is not a struct or pointer to a struct", typ.String())
		}
	default:
		return false, fmt.Errorf("Type %q is not a struct or pointer to a struct", typ.String())
	}

	return isPointer, nil
}

// plan binds each column to a field. Plans are cached per column list.
func (s *structMapper) plan(m mapping, cols []string) ([]target, error) {
	key := strings.Join(cols, "\x00")

	s.mutex.RLock()
	p, ok := s.plans[key]
	s.mutex.RUnlock()

	if ok {
		return p, nil
	}

	for _, info := range m {
		if info.index > len(cols) {
			err := fmt.Errorf("field %q bound to column index %d, but there are %d columns", info.name, info.index, len(cols))
			return nil, createError(err, "column index", strconv.Itoa(info.index))
		}
	}

	p = make([]target, len(cols))
	for i, name := range cols {
		info, ok := findField(m, i+1, name)
		if !ok {
			if !s.allowUnknownColumns {
				err := fmt.Errorf("No destination for column %q", name)
				return nil, createError(err, "no destination", name)
			}
			continue
		}

		p[i] = target{position: info.position, init: info.init}
	}

	s.mutex.Lock()
	if len(s.plans) >= maxPlans {
		s.plans = make(map[string][]target, maxPlans)
	}
	s.plans[key] = p
	s.mutex.Unlock()

	return p, nil
}

// findField prefers a field bound to the column's index over one bound to its label
func findField(m mapping, index int, name string) (mapinfo, bool) {
	for _, info := range m {
		if info.index == index {
			return info, true
		}
	}

	for _, info := range m {
		if info.index == 0 && info.name == name {
			return info, true
		}
	}

	return mapinfo{}, false
}

func scanTargets(row reflect.Value, targets []target) []any {
	dests := make([]any, len(targets))

	for i, t := range targets {
		if t.position == nil {
			dests[i] = new(interface{})
			continue
		}

		for _, v := range t.init {
			pv := row.FieldByIndex(v)
			if !pv.IsNil() {
				continue
			}

			pv.Set(reflect.New(pv.Type().Elem()))
		}

		dests[i] = row.FieldByIndex(t.position).Addr().Interface()
	}

	return dests
}
