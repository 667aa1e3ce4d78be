package math

import "math/big"

// LagrangeCoefficientsAtZero returns λ_i such that f(0) = Σᵢ λ_i·f(xᵢ) for any
// polynomial f of degree < len(indices), where xᵢ = indices[i].
// λ_i = ∏_{j≠i} x_j / (x_j - x_i)
func LagrangeCoefficientsAtZero(indices []int, modulus *big.Int) ([]*big.Int, error) {
	if len(indices) == 0 {
		return nil, ErrEmptyPoints
	}
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	if err := checkIndices(indices); err != nil {
		return nil, err
	}

	coefficients := make([]*big.Int, len(indices))
	for i, xi := range indices {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j, xj := range indices {
			if i == j {
				continue
			}
			num.Mul(num, big.NewInt(int64(xj)))
			num.Mod(num, modulus)

			den.Mul(den, big.NewInt(int64(xj-xi)))
			den.Mod(den, modulus)
		}

		inv := new(big.Int).ModInverse(den, modulus)
		if inv == nil {
			return nil, ErrDuplicatePoints
		}
		coefficients[i] = num.Mul(num, inv).Mod(num, modulus)
	}

	return coefficients, nil
}

// InterpolateAtZero recovers f(0) from the evaluations values[i] = f(indices[i])
func InterpolateAtZero(indices []int, values []*big.Int, modulus *big.Int) (*big.Int, error) {
	if len(indices) != len(values) {
		return nil, ErrPointValueMismatch
	}

	lambdas, err := LagrangeCoefficientsAtZero(indices, modulus)
	if err != nil {
		return nil, err
	}

	result := big.NewInt(0)
	term := new(big.Int)
	for i, v := range values {
		if v == nil {
			return nil, ErrNilScalar
		}
		term.Mul(lambdas[i], v)
		result.Add(result, term)
		result.Mod(result, modulus)
	}

	return result, nil
}

// checkIndices rejects non-positive and repeated evaluation points
func checkIndices(indices []int) error {
	seen := make(map[int]struct{}, len(indices))
	for _, x := range indices {
		if x <= 0 {
			return ErrInvalidIndex
		}
		if _, ok := seen[x]; ok {
			return ErrDuplicatePoints
		}
		seen[x] = struct{}{}
	}
	return nil
}
