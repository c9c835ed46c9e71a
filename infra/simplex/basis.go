package simplex

import (
	"gonum.org/v1/gonum/mat"
)

// basisTol is the negativity lp.Simplex tolerates in a supplied basis.
const basisTol = 1e-13

// layout records how solveLP placed the standard-form columns: structural
// columns first, then one slack per inequality row, then one slack per bound
// row. Bound rows follow the constraint rows.
type layout struct {
	structural int
	rows       int
	// slack is the slack column of each constraint row, -1 for equalities.
	slack []int
	// bounded is the structural column of each bound row.
	bounded    []int
	boundSlack []int
}

// crashBasis picks one basic column per row so the simplex can skip its
// phase 1. Each equality row takes a structural column with a positive
// coefficient that no other equality row uses. Bounded columns whose
// coefficients are all negative start at their upper bound, which only
// loosens the inequality rows. Every remaining row keeps its slack.
//
// On the scheduling models this selects one interval per job and puts the
// peak or per-step slack at its cap. The result is checked the way
// lp.Simplex checks a supplied basis; nil means none was found.
func crashBasis(a *mat.Dense, b []float64, l layout) []int {
	n := l.structural
	boundOf := make([]int, n)
	for k := range boundOf {
		boundOf[k] = -1
	}
	for i, k := range l.bounded {
		boundOf[k] = i
	}
	eqRows := make([]int, n)
	positive := make([]bool, n)
	negative := make([]bool, n)
	for i := 0; i < l.rows; i++ {
		for k := 0; k < n; k++ {
			v := a.At(i, k)
			if v == 0 {
				continue
			}
			if v > 0 {
				positive[k] = true
			} else {
				negative[k] = true
			}
			if l.slack[i] < 0 {
				eqRows[k]++
			}
		}
	}

	value := make([]float64, n)
	atUpper := make([]bool, n)
	for k := range atUpper {
		if boundOf[k] >= 0 && negative[k] && !positive[k] {
			atUpper[k] = true
			value[k] = b[l.rows+boundOf[k]]
		}
	}

	basis := make([]int, len(b))
	for i := 0; i < l.rows; i++ {
		if l.slack[i] >= 0 {
			continue
		}
		if b[i] < 0 {
			return nil
		}
		pivot := -1
		for k := 0; k < n && pivot < 0; k++ {
			v := a.At(i, k)
			if v <= 0 || eqRows[k] != 1 {
				continue
			}
			x := b[i] / v
			if bi := boundOf[k]; bi >= 0 && x > b[l.rows+bi] {
				continue
			}
			pivot, value[k] = k, x
		}
		if pivot < 0 {
			return nil
		}
		basis[i] = pivot
	}
	for i := 0; i < l.rows; i++ {
		if l.slack[i] < 0 {
			continue
		}
		r := b[i]
		for k := 0; k < n; k++ {
			r -= a.At(i, k) * value[k]
		}
		if r < -basisTol {
			return nil
		}
		basis[i] = l.slack[i]
	}
	for i, k := range l.bounded {
		if atUpper[k] {
			basis[l.rows+i] = k
		} else {
			basis[l.rows+i] = l.boundSlack[i]
		}
	}
	if !feasibleBasis(a, b, basis) {
		return nil
	}
	return basis
}

// feasibleBasis solves for the basic values and requires them non-negative.
func feasibleBasis(a *mat.Dense, b []float64, basis []int) bool {
	m := len(b)
	ab := mat.NewDense(m, m, nil)
	col := make([]float64, m)
	for j, k := range basis {
		mat.Col(col, k, a)
		ab.SetCol(j, col)
	}
	var xb mat.VecDense
	if err := xb.SolveVec(ab, mat.NewVecDense(m, b)); err != nil {
		return false
	}
	for i := 0; i < m; i++ {
		if xb.AtVec(i) < -basisTol {
			return false
		}
	}
	return true
}
