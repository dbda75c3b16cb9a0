// Package jones provides the core polarimetric types for phasebeam: a
// precision-generic complex scalar and the 2x2 complex Jones matrix that every
// beam response is expressed as.
package jones

import "math"

// Float is a constraint for the supported floating-point precisions.
// The beam algorithms are instantiated once per precision so the single- and
// double-precision paths cannot diverge in anything but rounding.
type Float interface {
	~float32 | ~float64
}

// Complex is a complex scalar over precision F. The struct layout (re, im)
// matches the interleaved layout used by the GPU buffers, so slices of
// Complex upload without repacking.
type Complex[F Float] struct {
	Re, Im F
}

// C builds a Complex from real and imaginary parts.
func C[F Float](re, im F) Complex[F] { return Complex[F]{Re: re, Im: im} }

// Add returns a + b.
func (a Complex[F]) Add(b Complex[F]) Complex[F] {
	return Complex[F]{a.Re + b.Re, a.Im + b.Im}
}

// Sub returns a - b.
func (a Complex[F]) Sub(b Complex[F]) Complex[F] {
	return Complex[F]{a.Re - b.Re, a.Im - b.Im}
}

// Mul returns a * b.
func (a Complex[F]) Mul(b Complex[F]) Complex[F] {
	return Complex[F]{
		a.Re*b.Re - a.Im*b.Im,
		a.Re*b.Im + a.Im*b.Re,
	}
}

// Div returns a / b using Smith's algorithm to avoid premature
// overflow/underflow.
func (a Complex[F]) Div(b Complex[F]) Complex[F] {
	if abs(b.Re) >= abs(b.Im) {
		r := b.Im / b.Re
		d := b.Re + b.Im*r
		return Complex[F]{(a.Re + a.Im*r) / d, (a.Im - a.Re*r) / d}
	}
	r := b.Re / b.Im
	d := b.Re*r + b.Im
	return Complex[F]{(a.Re*r + a.Im) / d, (a.Im*r - a.Re) / d}
}

// Scale returns a * s for a real scalar s.
func (a Complex[F]) Scale(s F) Complex[F] {
	return Complex[F]{a.Re * s, a.Im * s}
}

// Conj returns the complex conjugate of a.
func (a Complex[F]) Conj() Complex[F] {
	return Complex[F]{a.Re, -a.Im}
}

// Abs returns |a|.
func (a Complex[F]) Abs() F {
	return F(math.Hypot(float64(a.Re), float64(a.Im)))
}

// Expi returns e^{i*phi}.
func Expi[F Float](phi F) Complex[F] {
	s, c := math.Sincos(float64(phi))
	return Complex[F]{F(c), F(s)}
}

func abs[F Float](x F) F {
	if x < 0 {
		return -x
	}
	return x
}

// Jones is a row-major 2x2 complex matrix: [j00 j01 j10 j11]. It maps incoming
// sky polarization to the voltages measured by a tile's X and Y dipoles.
type Jones[F Float] [4]Complex[F]

// Zero returns the all-zero Jones matrix.
func Zero[F Float]() Jones[F] { return Jones[F]{} }

// Add returns the element-wise sum j + o.
func (j Jones[F]) Add(o Jones[F]) Jones[F] {
	return Jones[F]{j[0].Add(o[0]), j[1].Add(o[1]), j[2].Add(o[2]), j[3].Add(o[3])}
}

// MulRight returns the matrix product j * o.
func (j Jones[F]) MulRight(o Jones[F]) Jones[F] {
	return Jones[F]{
		j[0].Mul(o[0]).Add(j[1].Mul(o[2])),
		j[0].Mul(o[1]).Add(j[1].Mul(o[3])),
		j[2].Mul(o[0]).Add(j[3].Mul(o[2])),
		j[2].Mul(o[1]).Add(j[3].Mul(o[3])),
	}
}

// DivElem divides j element-wise by d. Used by zenith normalization.
func (j Jones[F]) DivElem(d Jones[F]) Jones[F] {
	return Jones[F]{j[0].Div(d[0]), j[1].Div(d[1]), j[2].Div(d[2]), j[3].Div(d[3])}
}

// ScaleComplex multiplies every element by the complex scalar s.
func (j Jones[F]) ScaleComplex(s Complex[F]) Jones[F] {
	return Jones[F]{j[0].Mul(s), j[1].Mul(s), j[2].Mul(s), j[3].Mul(s)}
}

// IAUOrder re-arranges the matrix from [EW-EW EW-NS; NS-EW NS-NS] to the IAU
// convention [NS-NS NS-EW; EW-NS EW-EW].
func (j Jones[F]) IAUOrder() Jones[F] {
	return Jones[F]{j[3], j[2], j[1], j[0]}
}

// Rotation returns the real rotation [[cos -sin] [sin cos]] as a Jones matrix.
func Rotation[F Float](angle F) Jones[F] {
	s, c := math.Sincos(float64(angle))
	return Jones[F]{
		C(F(c), 0), C(F(-s), 0),
		C(F(s), 0), C(F(c), 0),
	}
}

// Demote converts a double-precision Jones matrix to single precision.
func Demote(j Jones[float64]) Jones[float32] {
	var out Jones[float32]
	for i, e := range j {
		out[i] = Complex[float32]{float32(e.Re), float32(e.Im)}
	}
	return out
}

// Promote converts a single-precision Jones matrix to double precision.
func Promote(j Jones[float32]) Jones[float64] {
	var out Jones[float64]
	for i, e := range j {
		out[i] = Complex[float64]{float64(e.Re), float64(e.Im)}
	}
	return out
}
