package math

import (
	"math/big"
	"sync"
)

// VandermondeCache memoizes the inverse of the n×n Vandermonde matrix
// V[i][j] = (i+1)^j mod q, one entry per party count. Each entry is
// computed at most once; concurrent callers for the same n wait for the
// first computation and share its result.
type VandermondeCache struct {
	modulus *big.Int

	mu      sync.Mutex
	entries map[int]*vandermondeEntry
}

type vandermondeEntry struct {
	once    sync.Once
	inverse [][]*big.Int
	err     error
}

// NewVandermondeCache creates an empty cache for the field Z_modulus
func NewVandermondeCache(modulus *big.Int) (*VandermondeCache, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}

	return &VandermondeCache{
		modulus: new(big.Int).Set(modulus),
		entries: make(map[int]*vandermondeEntry),
	}, nil
}

// Modulus returns the field modulus the cache was built for
func (c *VandermondeCache) Modulus() *big.Int {
	return new(big.Int).Set(c.modulus)
}

// Inverse returns a copy of V⁻¹ for n parties
func (c *VandermondeCache) Inverse(n int) ([][]*big.Int, error) {
	inv, err := c.lookup(n)
	if err != nil {
		return nil, err
	}

	out := make([][]*big.Int, n)
	for i := range inv {
		out[i] = copyRow(inv[i])
	}
	return out, nil
}

// Lambdas returns the first row of V⁻¹. For evaluations yⱼ = f(j+1) of a
// polynomial of degree < n, f(0) = Σⱼ lambdas[j]·yⱼ.
func (c *VandermondeCache) Lambdas(n int) ([]*big.Int, error) {
	inv, err := c.lookup(n)
	if err != nil {
		return nil, err
	}
	return copyRow(inv[0]), nil
}

// Len returns the number of party counts computed so far
func (c *VandermondeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *VandermondeCache) lookup(n int) ([][]*big.Int, error) {
	if n <= 0 {
		return nil, ErrInvalidDegree
	}

	c.mu.Lock()
	entry, ok := c.entries[n]
	if !ok {
		entry = &vandermondeEntry{}
		c.entries[n] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.inverse, entry.err = InvertVandermonde(n, c.modulus)
	})
	return entry.inverse, entry.err
}

// InvertVandermonde computes the inverse of V[i][j] = (i+1)^j mod q with
// Gauss-Jordan elimination over Z_q
func InvertVandermonde(n int, modulus *big.Int) ([][]*big.Int, error) {
	if n <= 0 {
		return nil, ErrInvalidDegree
	}
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}

	// Augmented matrix [V | I]
	m := make([][]*big.Int, n)
	for i := 0; i < n; i++ {
		m[i] = make([]*big.Int, 2*n)
		x := big.NewInt(int64(i + 1))
		pow := big.NewInt(1)
		for j := 0; j < n; j++ {
			m[i][j] = new(big.Int).Set(pow)
			pow.Mul(pow, x)
			pow.Mod(pow, modulus)
		}
		for j := 0; j < n; j++ {
			if i == j {
				m[i][n+j] = big.NewInt(1)
			} else {
				m[i][n+j] = big.NewInt(0)
			}
		}
	}

	tmp := new(big.Int)
	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if m[r][col].Sign() != 0 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return nil, ErrSingularMatrix
		}
		m[col], m[pivot] = m[pivot], m[col]

		inv := new(big.Int).ModInverse(m[col][col], modulus)
		if inv == nil {
			return nil, ErrSingularMatrix
		}
		for j := 0; j < 2*n; j++ {
			m[col][j].Mul(m[col][j], inv)
			m[col][j].Mod(m[col][j], modulus)
		}

		for r := 0; r < n; r++ {
			if r == col || m[r][col].Sign() == 0 {
				continue
			}
			factor := new(big.Int).Set(m[r][col])
			for j := 0; j < 2*n; j++ {
				tmp.Mul(factor, m[col][j])
				m[r][j].Sub(m[r][j], tmp)
				m[r][j].Mod(m[r][j], modulus)
			}
		}
	}

	inverse := make([][]*big.Int, n)
	for i := 0; i < n; i++ {
		inverse[i] = m[i][n:]
	}
	return inverse, nil
}

func copyRow(row []*big.Int) []*big.Int {
	out := make([]*big.Int, len(row))
	for i, v := range row {
		out[i] = new(big.Int).Set(v)
	}
	return out
}
