// Package tridiag solves the banded linear systems that couple neighbouring
// vehicles of a train.
//
// Row i of a [System] reads
//
//	A[i]·U[i-1] + B[i]·U[i] + C[i]·U[i+1] = R[i]
//
// and is solved by forward elimination and back substitution (the Thomas
// algorithm). Rows can be pinned to a fixed value, which is how inert
// couplers are removed from the system between passes.
package tridiag

// System holds the coefficient and solution arrays for n unknowns. The
// arrays are reused across solves; callers rewrite A, B, C and R and call
// Solve again.
type System struct {
	A, B, C, R []float64
	G          []float64 // elimination factors from the last forward sweep
	U          []float64 // solution of the last Solve

	pinned []bool
}

func New(n int) *System {
	s := &System{}
	s.Resize(n)
	return s
}

// Resize sets the number of unknowns, reusing storage where possible, and
// clears every row.
func (s *System) Resize(n int) {
	if cap(s.A) < n {
		s.A = make([]float64, n)
		s.B = make([]float64, n)
		s.C = make([]float64, n)
		s.R = make([]float64, n)
		s.G = make([]float64, n)
		s.U = make([]float64, n)
		s.pinned = make([]bool, n)
	}
	s.A, s.B, s.C = s.A[:n], s.B[:n], s.C[:n]
	s.R, s.G, s.U = s.R[:n], s.G[:n], s.U[:n]
	s.pinned = s.pinned[:n]
	for i := 0; i < n; i++ {
		s.A[i], s.B[i], s.C[i], s.R[i], s.G[i], s.U[i] = 0, 0, 0, 0, 0, 0
		s.pinned[i] = false
	}
}

func (s *System) Len() int { return len(s.B) }

// Set writes row i and releases any pin on it.
func (s *System) Set(i int, a, b, c, r float64) {
	s.A[i], s.B[i], s.C[i], s.R[i] = a, b, c, r
	s.pinned[i] = false
}

// Pin makes row i read U[i] = value, decoupling it from its neighbours.
func (s *System) Pin(i int, value float64) {
	s.A[i], s.C[i] = 0, 0
	s.B[i] = 1
	s.R[i] = value
	s.pinned[i] = true
}

func (s *System) Pinned(i int) bool { return s.pinned[i] }

// Solve computes U from the current coefficients. B is left untouched so the
// same system can be edited and solved again.
func (s *System) Solve() {
	n := len(s.B)
	if n == 0 {
		return
	}

	b := s.B[0]
	s.G[0] = 0
	s.U[0] = s.R[0] / b
	for i := 1; i < n; i++ {
		s.G[i] = s.C[i-1] / b
		b = s.B[i] - s.A[i]*s.G[i]
		s.U[i] = (s.R[i] - s.A[i]*s.U[i-1]) / b
	}

	for i := n - 2; i >= 0; i-- {
		s.U[i] -= s.G[i+1] * s.U[i+1]
	}
}
