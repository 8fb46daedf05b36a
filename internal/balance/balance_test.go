package balance

import (
	"math"
	"testing"
)

func TestComputeAtRunStart(t *testing.T) {
	m := Compute(0, 0, 0)
	if !approx(m.LeftWeight, 1.0) {
		t.Fatalf("expected left weight 1.0, got %.4f", m.LeftWeight)
	}
	if !approx(m.RightWeight, 0.0) {
		t.Fatalf("expected right weight 0.0, got %.4f", m.RightWeight)
	}
	if !approx(m.Balance, -1.0) {
		t.Fatalf("expected balance -1.0, got %.4f", m.Balance)
	}
	if !approx(m.Complexity, 1.0) {
		t.Fatalf("expected complexity 1.0, got %.4f", m.Complexity)
	}
}

func TestComputeAtRunEnd(t *testing.T) {
	m := Compute(1, 1, 1)
	if !approx(m.LeftWeight, 0.1) {
		t.Fatalf("left weight must hit the 0.1 floor, got %.4f", m.LeftWeight)
	}
	if !approx(m.RightWeight, 0.9) {
		t.Fatalf("right weight must hit the 0.9 ceiling, got %.4f", m.RightWeight)
	}
	if !approx(m.Pulse, 1.0) {
		t.Fatalf("pulse must equal overall score, got %.4f", m.Pulse)
	}
	if !approx(m.Complexity, 4.0) {
		t.Fatalf("expected complexity 4.0, got %.4f", m.Complexity)
	}
}

func TestComputeMidRun(t *testing.T) {
	m := Compute(0.5, 0.8, 0.4)
	// baseLeft 0.5 * (1-0.24) * (1-0.04) = 0.36480
	if !approx(m.LeftWeight, 0.5*(1-0.8*0.3)*(1-0.4*0.1)) {
		t.Fatalf("unexpected left weight %.6f", m.LeftWeight)
	}
	// baseRight 0.5 * (1+0.24) * (1+0.04) = 0.64480
	if !approx(m.RightWeight, 0.5*(1+0.8*0.3)*(1+0.4*0.1)) {
		t.Fatalf("unexpected right weight %.6f", m.RightWeight)
	}
	if !approx(m.Balance, m.RightWeight-m.LeftWeight) {
		t.Fatalf("balance must be right-left, got %.6f", m.Balance)
	}
}

// TestClampCube sweeps the full input cube and asserts the asymmetric
// clamp bounds hold everywhere.
func TestClampCube(t *testing.T) {
	const steps = 50
	for i := 0; i <= steps; i++ {
		for j := 0; j <= steps; j++ {
			for k := 0; k <= steps; k++ {
				fraction := float64(i) / steps
				score := float64(j) / steps
				secondary := float64(k) / steps
				m := Compute(fraction, score, secondary)
				if m.LeftWeight < 0.1 {
					t.Fatalf("f=%.2f s=%.2f w=%.2f: left weight %.4f below floor", fraction, score, secondary, m.LeftWeight)
				}
				if m.RightWeight > 0.9 {
					t.Fatalf("f=%.2f s=%.2f w=%.2f: right weight %.4f above ceiling", fraction, score, secondary, m.RightWeight)
				}
				// One-sided clamps bound balance above by 0.8 and below
				// by -1.0 (unclamped left at run start).
				if m.Balance < -1.0-1e-9 || m.Balance > 0.8+1e-9 {
					t.Fatalf("f=%.2f s=%.2f w=%.2f: balance %.4f outside [-1.0,0.8]", fraction, score, secondary, m.Balance)
				}
				if m.Pulse < 0 || m.Pulse > 1 {
					t.Fatalf("pulse %.4f outside [0,1]", m.Pulse)
				}
				if m.Complexity < 1 || m.Complexity > 4 {
					t.Fatalf("complexity %.4f outside [1,4]", m.Complexity)
				}
			}
		}
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
