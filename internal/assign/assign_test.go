package assign

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ivlev/animforge/internal/model"
)

func TestSolveSquare(t *testing.T) {
	cost := [][]float64{
		{10, 2},
		{4, 8},
	}

	sigma, err := Solve(cost)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if sigma[0] != 1 || sigma[1] != 0 {
		t.Errorf("expected cross assignment [1 0], got %v", sigma)
	}
	if total := TotalCost(cost, sigma); total != 6 {
		t.Errorf("expected total 6, got %f", total)
	}
}

func TestSolveRectangular(t *testing.T) {
	// Three paths, two objects: the expensive middle column stays unused.
	cost := [][]float64{
		{5, 100, 1},
		{1, 100, 5},
	}

	sigma, err := Solve(cost)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if sigma[0] != 2 || sigma[1] != 0 {
		t.Errorf("expected [2 0], got %v", sigma)
	}
}

func TestSolveMoreRowsThanColumns(t *testing.T) {
	cost := [][]float64{
		{1},
		{2},
		{3},
	}

	sigma, err := Solve(cost)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	matched := 0
	for _, j := range sigma {
		if j == 0 {
			matched++
		} else if j != -1 {
			t.Errorf("invalid column %d", j)
		}
	}
	if matched != 1 {
		t.Errorf("expected exactly one matched row, got %d (%v)", matched, sigma)
	}
	if sigma[0] != 0 {
		t.Errorf("cheapest row should win the single column, got %v", sigma)
	}
}

func TestSolveInfeasible(t *testing.T) {
	inf := math.Inf(1)
	cost := [][]float64{
		{inf, inf},
		{inf, inf},
	}

	if _, err := Solve(cost); !errors.Is(err, model.ErrAssignInfeasible) {
		t.Errorf("expected ErrAssignInfeasible, got %v", err)
	}
}

func TestSolveNeverWorseThanIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 2 + r.Intn(6)
		cost := make([][]float64, n)
		identity := 0.0
		for i := range cost {
			cost[i] = make([]float64, n)
			for j := range cost[i] {
				cost[i][j] = r.Float64() * 100
			}
			identity += cost[i][i]
		}

		sigma, err := Solve(cost)
		if err != nil {
			t.Fatalf("Solve failed: %v", err)
		}
		if total := TotalCost(cost, sigma); total > identity+1e-9 {
			t.Errorf("trial %d: total %f worse than identity %f", trial, total, identity)
		}
	}
}
