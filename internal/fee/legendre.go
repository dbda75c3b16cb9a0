// Package fee implements the model-coefficient-driven beam: per-dipole
// spherical-harmonic coefficients are phased and summed into tile-level mode
// sets, then synthesized into a Jones matrix per direction.
package fee

import (
	"math"

	"github.com/phasebeam/phasebeam/internal/jones"
)

// maxDegree bounds the harmonic degree the synthesis supports. The shipped
// models top out well below this.
const maxDegree = 64

// factorial[k] = k! as float64, for the normalization constants.
var factorial [2*maxDegree + 2]float64

func init() {
	factorial[0] = 1
	for k := 1; k < len(factorial); k++ {
		factorial[k] = factorial[k-1] * float64(k)
	}
}

// legendreRow fills out[m] with the associated Legendre values P_n^m(u) for
// m = 0..n, Condon-Shortley phase included. out must have length n+1. The
// arithmetic runs in the instantiated precision so the CPU path rounds the
// same way as its GPU counterpart.
func legendreRow[F jones.Float](n int, u F, out []F) {
	somx2 := F(math.Sqrt(float64((1 - u) * (1 + u))))
	pmm := F(1)
	for m := 0; m <= n; m++ {
		if m > 0 {
			pmm *= -F(2*m-1) * somx2
		}
		switch {
		case m == n:
			out[m] = pmm
		case m+1 == n:
			out[m] = u * F(2*m+1) * pmm
		default:
			prev := pmm
			cur := u * F(2*m+1) * pmm
			for nn := m + 2; nn <= n; nn++ {
				next := (u*F(2*nn-1)*cur - F(nn+m-1)*prev) / F(nn-m)
				prev, cur = cur, next
			}
			out[m] = cur
		}
	}
}

// legendreP returns P_n^m(u) for 0 <= m. Orders above n are zero.
func legendreP[F jones.Float](n, m int, u F) F {
	if m > n {
		return 0
	}
	row := make([]F, n+1)
	legendreRow(n, u, row)
	return row[m]
}

// legendreTables precomputes, for every degree n in 1..nMax and order m in
// -n..n, the ratio P_n^|m|(cos za)/sin(za) and the raised-order value
// P_n^{|m|+1}(cos za). Both tables are indexed by n*n + n - 1 + m, the same
// layout the synthesis loop and the GPU kernel walk.
//
// At the poles the ratio vanishes for every order except |m| = 1, where it
// tends to -n(n+1)/2 at za = 0 and (-1)^n n(n+1)/2 at za = pi.
func legendreTables[F jones.Float](nMax int, za F) (psin, p1 []F) {
	size := nMax*nMax + 2*nMax
	psin = make([]F, size)
	p1 = make([]F, size)

	u := F(math.Cos(float64(za)))
	sinZA := F(math.Sin(float64(za)))
	atPole := math.Abs(float64(sinZA)) < 1e-12

	row := make([]F, nMax+1)
	for n := 1; n <= nMax; n++ {
		legendreRow(n, u, row[:n+1])
		for m := -n; m <= n; m++ {
			am := m
			if am < 0 {
				am = -am
			}
			ind := n*n + n - 1 + m
			if atPole {
				psin[ind] = poleRatio[F](n, am, u)
			} else {
				psin[ind] = row[am] / sinZA
			}
			if am+1 <= n {
				p1[ind] = row[am+1]
			}
		}
	}
	return psin, p1
}

// poleRatio is the limit of P_n^m(cos za)/sin(za) as za approaches 0 or pi.
func poleRatio[F jones.Float](n, m int, u F) F {
	if m != 1 {
		return 0
	}
	lim := F(n) * F(n+1) / 2
	if u > 0 {
		return -lim
	}
	if n%2 == 0 {
		return lim
	}
	return -lim
}

// jPower returns i^k for k >= 0.
func jPower[F jones.Float](k int) jones.Complex[F] {
	switch k % 4 {
	case 0:
		return jones.C[F](1, 0)
	case 1:
		return jones.C[F](0, 1)
	case 2:
		return jones.C[F](-1, 0)
	default:
		return jones.C[F](0, -1)
	}
}
