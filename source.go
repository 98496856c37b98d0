package rxscan

import (
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Column is the column binding a struct field declares through its tag.
//
//	ID    int    `db:",index=1"`  // bound to the first column
//	Name  string `db:"user_name"` // bound to the column labelled user_name
//	Email string                  // bound to the column labelled email
type Column struct {
	// Index is the 1-based position of the column, 0 when bound by label
	Index int
	// Label is the column label. Empty means it is derived from the field name
	Label string
}

// ParseColumnTag parses the value of a column struct tag
func ParseColumnTag(tag string) (Column, error) {
	parts := strings.Split(tag, ",")
	c := Column{Label: strings.TrimSpace(parts[0])}

	for _, p := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(p), "=")
		switch key {
		case "index":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return c, fmt.Errorf("invalid column index %q in tag %q", val, tag)
			}
			c.Index = i
		case "":
		default:
			return c, fmt.Errorf("unknown option %q in tag %q", key, tag)
		}
	}

	return c, nil
}

type visited map[reflect.Type]int

func (v visited) copy() visited {
	v2 := make(visited, len(v))
	for t, c := range v {
		v2[t] = c
	}

	return v2
}

type mapping = []mapinfo

type mapinfo struct {
	name     string
	index    int
	position []int
	init     [][]int
}

// NameMapperFunc is a function type that maps a struct field name to the database column name.
type NameMapperFunc func(string) string

var (
	matchFirstCapRe = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCapRe   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// snakeCaseFieldFunc is a NameMapperFunc that maps struct field to snake case.
func snakeCaseFieldFunc(str string) string {
	snake := matchFirstCapRe.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCapRe.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// MappingOption is a function type that changes Mapping configuration.
type MappingOption func(s *structMapper) error

// WithStructTagKey allows to use a custom struct tag key.
// The default tag key is `db`.
func WithStructTagKey(tagKey string) MappingOption {
	return func(s *structMapper) error {
		s.structTagKey = tagKey
		return nil
	}
}

// WithColumnSeparator allows to use a custom separator character for column name when combining nested structs.
// The default separator is "." character.
func WithColumnSeparator(separator string) MappingOption {
	return func(s *structMapper) error {
		s.columnSeparator = separator
		return nil
	}
}

// WithFieldNameMapper allows to use a custom function to map field name to column names.
// The default function maps fields names to "snake_case"
func WithFieldNameMapper(mapperFn NameMapperFunc) MappingOption {
	return func(s *structMapper) error {
		s.fieldMapperFn = mapperFn
		return nil
	}
}

// WithScannableTypes specifies a list of interfaces that underlying database library can scan into.
// In case the destination type passed to scan implements one of those interfaces,
// scan will handle it as primitive type case i.e. simply pass the destination to the database library.
// Instead of attempting to map database columns to destination struct fields or map keys.
// In order for reflection to capture the interface type, you must pass it by pointer.
//
// For example your database library defines a scanner interface like this:
//
//	type Scanner interface {
//	    Scan(...) error
//	}
//
// You can pass it to scan this way:
// rxscan.WithScannableTypes((*Scanner)(nil)).
func WithScannableTypes(scannableTypes ...any) MappingOption {
	return func(s *structMapper) error {
		for _, stOpt := range scannableTypes {
			st := reflect.TypeOf(stOpt)
			if st == nil {
				return fmt.Errorf("scannable type must be a pointer, got %T", stOpt)
			}
			if st.Kind() != reflect.Pointer {
				return fmt.Errorf("scannable type must be a pointer, got %s: %s",
					st.Kind(), st.String())
			}
			st = st.Elem()
			if st.Kind() != reflect.Interface {
				return fmt.Errorf("scannable type must be a pointer to an interface, got %s: %s",
					st.Kind(), st.String())
			}
			s.scannableTypes = append(s.scannableTypes, st)
		}
		return nil
	}
}

// WithAllowUnknownColumns allows the mapper to ignore columns that have no destination field.
// The default is to return an error when a column is not found at the destination.
func WithAllowUnknownColumns(allowUnknownColumns bool) MappingOption {
	return func(s *structMapper) error {
		s.allowUnknownColumns = allowUnknownColumns
		return nil
	}
}

// structMapper holds the options of a struct mapper and the plans it
// built for every set of columns it has seen.
type structMapper struct {
	structTagKey        string
	columnSeparator     string
	fieldMapperFn       NameMapperFunc
	scannableTypes      []reflect.Type
	allowUnknownColumns bool
	maxDepth            int

	mutex sync.RWMutex
	plans map[string][]target
}

func newStructMapper(opts ...MappingOption) (*structMapper, error) {
	s := &structMapper{
		structTagKey:    "db",
		columnSeparator: ".",
		fieldMapperFn:   snakeCaseFieldFunc,
		scannableTypes:  []reflect.Type{reflect.TypeOf((*sql.Scanner)(nil)).Elem()},
		maxDepth:        3,
		plans:           make(map[string][]target),
	}

	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *structMapper) getMapping(typ reflect.Type) (mapping, error) {
	var m mapping
	if err := s.setMappings(typ, "", make(visited), &m, nil); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *structMapper) isLeaf(typ reflect.Type) bool {
	if typ.Kind() != reflect.Struct {
		return true
	}

	// If it implements a scannable type, then it can be used
	// as a value itself.
	for _, scannable := range s.scannableTypes {
		if reflect.PointerTo(typ).Implements(scannable) {
			return true
		}
	}

	// If it has no exported field (such as time.Time) then we attempt to
	// directly scan into it
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).IsExported() {
			return false
		}
	}

	return true
}

func (s *structMapper) setMappings(typ reflect.Type, prefix string, v visited, m *mapping, inits [][]int, position ...int) error {
	count := v[typ]
	if count > s.maxDepth {
		return nil
	}
	v[typ] = count + 1

	// Go through the struct fields and populate the map.
	// Recursively go into any child structs, adding a prefix where necessary
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Don't consider unexported fields
		if !field.IsExported() {
			continue
		}

		// Skip columns that have the tag "-"
		tag := field.Tag.Get(s.structTagKey)
		if tag == "-" {
			continue
		}

		col, err := ParseColumnTag(tag)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", typ.Name(), field.Name, err)
		}

		key := prefix
		if !field.Anonymous || col.Label != "" {
			var sep string
			if prefix != "" {
				sep = s.columnSeparator
			}

			name := col.Label
			if name == "" {
				name = s.fieldMapperFn(field.Name)
			}

			key = strings.Join([]string{key, name}, sep)
		}

		currentIndex := make([]int, len(position)+1)
		copy(currentIndex, position)
		currentIndex[len(position)] = i

		fieldType := field.Type
		if fieldType.Kind() == reflect.Pointer && !s.isLeaf(fieldType.Elem()) {
			fieldInits := make([][]int, len(inits), len(inits)+1)
			copy(fieldInits, inits)
			fieldInits = append(fieldInits, currentIndex)

			if err := s.setMappings(fieldType.Elem(), key, v.copy(), m, fieldInits, currentIndex...); err != nil {
				return err
			}
			continue
		}

		if !s.isLeaf(fieldType) {
			if err := s.setMappings(fieldType, key, v.copy(), m, inits, currentIndex...); err != nil {
				return err
			}
			continue
		}

		*m = append(*m, mapinfo{
			name:     key,
			index:    col.Index,
			position: currentIndex,
			init:     inits,
		})
	}

	return nil
}
