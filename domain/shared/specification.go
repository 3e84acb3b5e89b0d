package shared

// Specification selects aggregates. The memory store evaluates it directly;
// SQL repositories translate the concrete types they know into a query and
// reject the rest.
type Specification[T any] interface {
	IsSatisfiedBy(entity T) bool
}

// AndSpecification holds when every part holds. An empty one matches everything.
type AndSpecification[T any] struct {
	Specs []Specification[T]
}

func (s AndSpecification[T]) IsSatisfiedBy(entity T) bool {
	for _, spec := range s.Specs {
		if !spec.IsSatisfiedBy(entity) {
			return false
		}
	}
	return true
}

func And[T any](specs ...Specification[T]) Specification[T] {
	return AndSpecification[T]{Specs: specs}
}
