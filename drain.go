package rxscan

// cursor is the part of a result both bridges advance
type cursor interface {
	Next() bool
	Err() error
}

// drain feeds every row of c to o, reports the first failure,
// and always completes o as the final signal.
// The reported failure is also returned.
func drain[T any](o Observer[T], c cursor, get func(int) (T, error)) error {
	err := feed(o, c, get)
	if err != nil {
		o.OnError(err)
	}

	o.OnCompleted()
	return err
}

// feed stops at the first failure. After it, c is not advanced
// and get is not called again.
func feed[T any](o Observer[T], c cursor, get func(int) (T, error)) error {
	for i := 0; c.Next(); i++ {
		v, err := get(i)
		if err != nil {
			return err
		}

		o.OnNext(v)
	}

	return c.Err()
}
