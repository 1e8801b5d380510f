// Package assign solves the rectangular minimum-cost assignment problem
// (Hungarian algorithm). The synthesizer uses it to match predicted motion
// paths to on-canvas objects.
package assign

import (
	"math"

	"github.com/ivlev/animforge/internal/model"
)

// Solve returns sigma where sigma[i] is the column assigned to row i,
// minimizing the total cost. The matrix may be rectangular; rows left
// without a real column (more rows than columns) get sigma[i] = -1.
// A matrix with no finite-cost solution returns model.ErrAssignInfeasible.
func Solve(cost [][]float64) ([]int, error) {
	n := len(cost)
	if n == 0 {
		return nil, nil
	}
	m := len(cost[0])
	if m == 0 {
		return nil, model.ErrAssignInfeasible
	}

	dim := n
	if m > dim {
		dim = m
	}

	// Pad to square with a constant larger than any achievable total so
	// dummy rows/columns never displace a real match.
	pad := padValue(cost, dim)
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
		for j := range a[i] {
			if i < n && j < m {
				a[i][j] = cost[i][j]
			} else {
				a[i][j] = pad
			}
		}
	}

	// Hungarian algorithm with row/column potentials, 1-indexed.
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	match := make([]int, dim+1) // match[j] = row assigned to column j
	way := make([]int, dim+1)

	for i := 1; i <= dim; i++ {
		match[0] = i
		j0 := 0
		minv := make([]float64, dim+1)
		used := make([]bool, dim+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := match[j0]
			delta := math.Inf(1)
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := a[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if math.IsInf(delta, 1) {
				return nil, model.ErrAssignInfeasible
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if match[j0] == 0 {
				break
			}
		}

		// Augment along the alternating path.
		for j0 != 0 {
			j1 := way[j0]
			match[j0] = match[j1]
			j0 = j1
		}
	}

	sigma := make([]int, n)
	for i := range sigma {
		sigma[i] = -1
	}
	for j := 1; j <= dim; j++ {
		i := match[j]
		if i >= 1 && i <= n && j <= m {
			sigma[i-1] = j - 1
		}
	}
	return sigma, nil
}

// TotalCost sums the cost of an assignment, skipping unmatched rows.
func TotalCost(cost [][]float64, sigma []int) float64 {
	total := 0.0
	for i, j := range sigma {
		if j >= 0 {
			total += cost[i][j]
		}
	}
	return total
}

func padValue(cost [][]float64, dim int) float64 {
	maxFinite := 0.0
	for _, row := range cost {
		for _, c := range row {
			if !math.IsInf(c, 1) && c > maxFinite {
				maxFinite = c
			}
		}
	}
	return maxFinite*float64(dim) + 1
}
