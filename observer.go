package rxscan

// Observer receives the values of a [Sequence].
// Signals are delivered in order, from the goroutine that subscribed.
// OnCompleted is always the last signal, and is delivered even after OnError.
type Observer[T any] interface {
	OnNext(T)
	OnError(error)
	OnCompleted()
}

// ObserverFuncs builds an [Observer] out of plain functions.
// Any of the functions may be nil.
type ObserverFuncs[T any] struct {
	Next      func(T)
	Error     func(error)
	Completed func()
}

func (o ObserverFuncs[T]) OnNext(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

func (o ObserverFuncs[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o ObserverFuncs[T]) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}

// Sequence is a lazy producer of values.
// Nothing happens until Subscribe is called, and every call to Subscribe
// runs the producer again. Nothing is cached between subscriptions.
type Sequence[T any] struct {
	produce func(Observer[T])
}

// Create returns a [Sequence] that calls produce for every subscription
func Create[T any](produce func(Observer[T])) Sequence[T] {
	return Sequence[T]{produce: produce}
}

// Error returns a [Sequence] that delivers err followed by completion
func Error[T any](err error) Sequence[T] {
	return Create(func(o Observer[T]) {
		o.OnError(err)
		o.OnCompleted()
	})
}

// Subscribe runs the producer synchronously on the calling goroutine.
// It returns once the terminal signal has been delivered.
func (s Sequence[T]) Subscribe(o Observer[T]) {
	if s.produce == nil {
		o.OnCompleted()
		return
	}

	s.produce(o)
}

// Collect subscribes to the sequence and returns every value it produced
// along with the first error delivered, if any
func Collect[T any](s Sequence[T]) ([]T, error) {
	var results []T
	var first error

	s.Subscribe(ObserverFuncs[T]{
		Next: func(v T) {
			results = append(results, v)
		},
		Error: func(err error) {
			if first == nil {
				first = err
			}
		},
	})

	return results, first
}
