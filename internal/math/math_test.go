package math

import (
	"math/big"
	"sync"
	"testing"
)

// edwards25519 group order, used as a realistic field
var testModulus, _ = new(big.Int).SetString("7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)

// TestPolynomialEvaluate tests Horner evaluation against a hand-computed value
func TestPolynomialEvaluate(t *testing.T) {
	// f(x) = 3 + 2x + x^2
	p, err := NewPolynomial([]*big.Int{big.NewInt(3), big.NewInt(2), big.NewInt(1)}, big.NewInt(101))
	if err != nil {
		t.Fatalf("NewPolynomial failed: %v", err)
	}

	if got := p.Evaluate(big.NewInt(5)); got.Int64() != 38 {
		t.Errorf("f(5) = %v, want 38", got)
	}

	// 3 + 20 + 100 = 123 = 22 mod 101
	if got := p.Evaluate(big.NewInt(10)); got.Int64() != 22 {
		t.Errorf("f(10) = %v, want 22", got)
	}

	evals := p.EvaluateRange(3)
	want := []int64{6, 11, 18}
	for i, w := range want {
		if evals[i].Int64() != w {
			t.Errorf("f(%d) = %v, want %d", i+1, evals[i], w)
		}
	}
}

// TestNewRandomPolynomial tests constant term placement and validation
func TestNewRandomPolynomial(t *testing.T) {
	secret := big.NewInt(42)
	p, err := NewRandomPolynomial(3, secret, testModulus)
	if err != nil {
		t.Fatalf("NewRandomPolynomial failed: %v", err)
	}

	if len(p.Coefficients) != 4 {
		t.Fatalf("expected 4 coefficients, got %d", len(p.Coefficients))
	}
	if p.Evaluate(big.NewInt(0)).Cmp(secret) != 0 {
		t.Errorf("f(0) should equal the constant term")
	}

	if _, err := NewRandomPolynomial(-1, secret, testModulus); err != ErrInvalidDegree {
		t.Errorf("expected ErrInvalidDegree, got %v", err)
	}
	if _, err := NewRandomPolynomial(2, secret, nil); err != ErrInvalidModulus {
		t.Errorf("expected ErrInvalidModulus, got %v", err)
	}
	if _, err := NewPolynomial(nil, testModulus); err != ErrEmptyCoefficients {
		t.Errorf("expected ErrEmptyCoefficients, got %v", err)
	}
}

// TestPolynomialZero tests that Zero wipes the coefficients
func TestPolynomialZero(t *testing.T) {
	p, err := NewRandomPolynomial(2, big.NewInt(7), testModulus)
	if err != nil {
		t.Fatalf("NewRandomPolynomial failed: %v", err)
	}
	coefficients := p.Coefficients[:1]
	evals := p.EvaluateRange(2)

	p.Zero()
	for i, c := range p.Coefficients {
		if c.Sign() != 0 {
			t.Errorf("coefficient %d not wiped", i)
		}
	}
	if coefficients[0].Sign() != 0 {
		t.Errorf("Zero should wipe in place")
	}
	if evals[0].Sign() == 0 && evals[1].Sign() == 0 {
		t.Errorf("evaluations taken before Zero should survive it")
	}
}

// TestInterpolateAtZero tests recovery of the constant term from any subset
func TestInterpolateAtZero(t *testing.T) {
	secret := big.NewInt(2410)
	p, err := NewRandomPolynomial(2, secret, testModulus)
	if err != nil {
		t.Fatalf("NewRandomPolynomial failed: %v", err)
	}

	subsets := [][]int{{1, 2, 3}, {5, 2, 4}, {3, 4, 5}, {1, 2, 3, 4, 5}}
	for _, idx := range subsets {
		values := make([]*big.Int, len(idx))
		for i, x := range idx {
			values[i] = p.Evaluate(big.NewInt(int64(x)))
		}

		got, err := InterpolateAtZero(idx, values, testModulus)
		if err != nil {
			t.Fatalf("InterpolateAtZero(%v) failed: %v", idx, err)
		}
		if got.Cmp(secret) != 0 {
			t.Errorf("InterpolateAtZero(%v) = %v, want %v", idx, got, secret)
		}
	}
}

// TestLagrangeInvalidIndices tests rejection of bad evaluation points
func TestLagrangeInvalidIndices(t *testing.T) {
	if _, err := LagrangeCoefficientsAtZero([]int{1, 2, 2}, testModulus); err != ErrDuplicatePoints {
		t.Errorf("expected ErrDuplicatePoints, got %v", err)
	}
	if _, err := LagrangeCoefficientsAtZero([]int{0, 1}, testModulus); err != ErrInvalidIndex {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := LagrangeCoefficientsAtZero(nil, testModulus); err != ErrEmptyPoints {
		t.Errorf("expected ErrEmptyPoints, got %v", err)
	}
	if _, err := InterpolateAtZero([]int{1, 2}, []*big.Int{big.NewInt(1)}, testModulus); err != ErrPointValueMismatch {
		t.Errorf("expected ErrPointValueMismatch, got %v", err)
	}
}

// TestInvertVandermonde tests V·V⁻¹ = I for several sizes
func TestInvertVandermonde(t *testing.T) {
	for n := 1; n <= 7; n++ {
		inv, err := InvertVandermonde(n, testModulus)
		if err != nil {
			t.Fatalf("InvertVandermonde(%d) failed: %v", n, err)
		}

		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				sum := big.NewInt(0)
				x := big.NewInt(int64(i + 1))
				pow := big.NewInt(1)
				for j := 0; j < n; j++ {
					term := new(big.Int).Mul(pow, inv[j][k])
					sum.Add(sum, term)
					pow.Mul(pow, x)
				}
				sum.Mod(sum, testModulus)

				want := int64(0)
				if i == k {
					want = 1
				}
				if sum.Int64() != want || !sum.IsInt64() {
					t.Errorf("n=%d: (V·V⁻¹)[%d][%d] = %v, want %d", n, i, k, sum, want)
				}
			}
		}
	}
}

// TestVandermondeLambdasMatchLagrange tests that the cached row equals the
// Lagrange coefficients over the full index set
func TestVandermondeLambdasMatchLagrange(t *testing.T) {
	cache, err := NewVandermondeCache(testModulus)
	if err != nil {
		t.Fatalf("NewVandermondeCache failed: %v", err)
	}

	lambdas, err := cache.Lambdas(5)
	if err != nil {
		t.Fatalf("Lambdas failed: %v", err)
	}
	expected, err := LagrangeCoefficientsAtZero([]int{1, 2, 3, 4, 5}, testModulus)
	if err != nil {
		t.Fatalf("LagrangeCoefficientsAtZero failed: %v", err)
	}

	for i := range lambdas {
		if lambdas[i].Cmp(expected[i]) != 0 {
			t.Errorf("lambda[%d] = %v, want %v", i, lambdas[i], expected[i])
		}
	}

	// Mutating a returned row must not corrupt the cache
	lambdas[0].SetInt64(0)
	again, _ := cache.Lambdas(5)
	if again[0].Cmp(expected[0]) != 0 {
		t.Errorf("cache entry was mutated through a returned row")
	}
}

// TestVandermondeCacheConcurrent tests compute-once under concurrent readers
func TestVandermondeCacheConcurrent(t *testing.T) {
	cache, err := NewVandermondeCache(testModulus)
	if err != nil {
		t.Fatalf("NewVandermondeCache failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := cache.Lambdas(n); err != nil {
				t.Errorf("Lambdas(%d) failed: %v", n, err)
			}
		}(3 + g%3)
	}
	wg.Wait()

	if cache.Len() != 3 {
		t.Errorf("expected 3 cached party counts, got %d", cache.Len())
	}

	if _, err := cache.Lambdas(0); err != ErrInvalidDegree {
		t.Errorf("expected ErrInvalidDegree, got %v", err)
	}
}
