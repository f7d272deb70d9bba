package primitive

// Operator describes an associative binary combine over T, optionally with
// an identity element. Associativity is a caller contract; it is not
// verified at runtime. Exclusive scan variants require the identity.
type Operator[T any] struct {
	combine     func(a, b T) T
	identity    T
	hasIdentity bool
}

// MakeOperator builds an operator from an associative combine function.
func MakeOperator[T any](combine func(a, b T) T) Operator[T] {
	return Operator[T]{combine: combine}
}

// MakeOperatorWithIdentity builds an operator with an identity element,
// enabling exclusive scan variants.
func MakeOperatorWithIdentity[T any](combine func(a, b T) T, identity T) Operator[T] {
	return Operator[T]{combine: combine, identity: identity, hasIdentity: true}
}

// Combine applies the operator to a pair of values.
func (op Operator[T]) Combine(a, b T) T {
	return op.combine(a, b)
}

// HasIdentity reports whether the operator carries an identity element.
func (op Operator[T]) HasIdentity() bool {
	return op.hasIdentity
}

// Identity returns the identity element. Valid only when HasIdentity.
func (op Operator[T]) Identity() T {
	return op.identity
}

// Number is the constraint for the built-in arithmetic operators.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum returns the addition operator with identity zero.
func Sum[T Number]() Operator[T] {
	var zero T
	return MakeOperatorWithIdentity(func(a, b T) T { return a + b }, zero)
}

// Max returns the maximum operator. It carries no identity; use
// MakeOperatorWithIdentity with the type's minimum when an exclusive
// variant is needed.
func Max[T Number]() Operator[T] {
	return MakeOperator(func(a, b T) T {
		if a > b {
			return a
		}
		return b
	})
}

// Min returns the minimum operator without an identity.
func Min[T Number]() Operator[T] {
	return MakeOperator(func(a, b T) T {
		if a < b {
			return a
		}
		return b
	})
}
