package rxscan

// MapperMod is run on every value a mapper returns.
// It can change the value or fail the row.
type MapperMod[T any] func(T, int) (T, error)

// Mod wraps m so that every mod is applied, in order, to each mapped row
func Mod[T any](m RowMapper[T], mods ...MapperMod[T]) RowMapper[T] {
	return func(r Rows, i int) (T, error) {
		t, err := m(r, i)
		if err != nil {
			return t, err
		}

		for _, f := range mods {
			if t, err = f(t, i); err != nil {
				return t, err
			}
		}

		return t, nil
	}
}
