package payout

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMatrixNoHedge(t *testing.T) {
	m := Matrix(1.95, 30, false, 0, 0)

	if !approx(m.A, 30*0.95) {
		t.Errorf("A = %v, want %v", m.A, 30*0.95)
	}
	if m.B != -30 {
		t.Errorf("B = %v, want -30", m.B)
	}
	if m.C != nil || m.CApplicable {
		t.Error("C must be absent without a hedge leg")
	}
	if m.D != -30 {
		t.Errorf("D = %v, want -30", m.D)
	}
}

func TestMatrixWithHedge(t *testing.T) {
	// main at evens so the win covers the hedge exactly
	m := Matrix(2.00, 60, true, 1.60, 30)

	if !approx(m.A, 30) { // 60*1.00 - 30
		t.Errorf("A = %v, want 30", m.A)
	}
	if !approx(m.B, -42) { // 30*0.60 - 60
		t.Errorf("B = %v, want -42", m.B)
	}
	if m.C == nil || !m.CApplicable {
		t.Fatal("C must be present with a hedge leg")
	}
	if !approx(*m.C, 78) { // 60 + 18
		t.Errorf("C = %v, want 78", *m.C)
	}
	if !approx(m.D, -90) {
		t.Errorf("D = %v, want -90", m.D)
	}

	// with the main at 2.00 the matrix is symmetric around the hedge stake
	if !approx(m.A+m.D, -2*30) {
		t.Errorf("A + D = %v, want %v", m.A+m.D, -2*30.0)
	}
}

func TestMatrixHedgeCheaperThanMainWin(t *testing.T) {
	// short-priced main: winning the main still loses the hedge stake only
	m := Matrix(1.80, 60, true, 1.50, 30)

	if !approx(m.A, 60*0.80-30) {
		t.Errorf("A = %v, want %v", m.A, 60*0.80-30)
	}
	if !approx(m.D, -(60 + 30)) {
		t.Errorf("D = %v, want -90", m.D)
	}
}
