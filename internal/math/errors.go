package math

import "errors"

var (
	// ErrEmptyCoefficients is returned when coefficients slice is empty
	ErrEmptyCoefficients = errors.New("coefficients cannot be empty")

	// ErrInvalidModulus is returned when modulus is invalid
	ErrInvalidModulus = errors.New("modulus must be positive")

	// ErrInvalidDegree is returned when degree or matrix size is negative
	ErrInvalidDegree = errors.New("degree must be non-negative")

	// ErrNilScalar is returned when a nil scalar is provided
	ErrNilScalar = errors.New("scalar cannot be nil")

	// ErrPointValueMismatch is returned when points and values have different lengths
	ErrPointValueMismatch = errors.New("points and values must have the same length")

	// ErrEmptyPoints is returned when points slice is empty
	ErrEmptyPoints = errors.New("points cannot be empty")

	// ErrDuplicatePoints is returned when interpolation points are not unique
	ErrDuplicatePoints = errors.New("interpolation points must be unique")

	// ErrInvalidIndex is returned for a zero or negative evaluation point
	ErrInvalidIndex = errors.New("evaluation points must be positive")

	// ErrSingularMatrix is returned when a matrix has no inverse mod q
	ErrSingularMatrix = errors.New("matrix is singular modulo q")
)
