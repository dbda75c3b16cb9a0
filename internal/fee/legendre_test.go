package fee

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegendreRowDegreeOne(t *testing.T) {
	u := 0.3
	row := make([]float64, 2)
	legendreRow(1, u, row)

	// P_1^0 = u and P_1^1 = -sqrt(1-u^2) with the Condon-Shortley phase.
	assert.InDelta(t, u, row[0], 1e-12)
	assert.InDelta(t, -math.Sqrt(1-u*u), row[1], 1e-12)
}

func TestLegendreRowDegreeTwo(t *testing.T) {
	u := -0.6
	s := math.Sqrt(1 - u*u)
	row := make([]float64, 3)
	legendreRow(2, u, row)

	assert.InDelta(t, (3*u*u-1)/2, row[0], 1e-12)
	assert.InDelta(t, -3*u*s, row[1], 1e-12)
	assert.InDelta(t, 3*(1-u*u), row[2], 1e-12)
}

func TestLegendrePOrderAboveDegree(t *testing.T) {
	assert.Equal(t, 0.0, legendreP[float64](2, 3, 0.5))
}

func TestLegendreTablesAwayFromPole(t *testing.T) {
	za := 0.7
	u := math.Cos(za)
	sin := math.Sin(za)
	psin, p1 := legendreTables[float64](2, za)

	// ind = n*n + n - 1 + m
	assert.InDelta(t, u/sin, psin[1*1+1-1+0], 1e-12)
	assert.InDelta(t, -math.Sqrt(1-u*u)/sin, psin[1*1+1-1+1], 1e-12)
	// Negative orders reuse the |m| row; the sign lives in the mode weights.
	assert.InDelta(t, psin[1*1+1-1+1], psin[1*1+1-1-1], 1e-12)

	// The raised-order table holds P_n^{|m|+1}.
	assert.InDelta(t, -3*u*math.Sqrt(1-u*u), p1[2*2+2-1+0], 1e-12)
	assert.InDelta(t, 3*(1-u*u), p1[2*2+2-1+1], 1e-12)
	// |m|+1 > n is zero.
	assert.Equal(t, 0.0, p1[2*2+2-1+2])
}

func TestLegendreTablesAtPoles(t *testing.T) {
	psin0, _ := legendreTables[float64](3, 0)
	psinPi, _ := legendreTables[float64](3, math.Pi)

	for n := 1; n <= 3; n++ {
		lim := float64(n) * float64(n+1) / 2

		// Only |m| = 1 survives at the poles.
		assert.InDelta(t, -lim, psin0[n*n+n-1+1], 1e-9, "n=%d za=0", n)
		assert.InDelta(t, 0.0, psin0[n*n+n-1+0], 1e-9, "n=%d m=0 za=0", n)

		want := lim
		if n%2 == 1 {
			want = -lim
		}
		assert.InDelta(t, want, psinPi[n*n+n-1+1], 1e-9, "n=%d za=pi", n)
	}
}

func TestJPowerCycle(t *testing.T) {
	want := []struct{ re, im float64 }{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	for k := 0; k < 8; k++ {
		got := jPower[float64](k)
		assert.Equal(t, want[k%4].re, float64(got.Re), "k=%d", k)
		assert.Equal(t, want[k%4].im, float64(got.Im), "k=%d", k)
	}
}
