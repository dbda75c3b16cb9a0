package jones

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexMul(t *testing.T) {
	a := C[float64](1, 2)
	b := C[float64](3, -1)

	got := a.Mul(b)
	assert.InDelta(t, 5.0, float64(got.Re), 1e-12)
	assert.InDelta(t, 5.0, float64(got.Im), 1e-12)
}

func TestComplexDiv(t *testing.T) {
	a := C[float64](5, 5)
	b := C[float64](3, -1)

	// (a*b)/b == a
	got := a.Mul(b).Div(b)
	assert.InDelta(t, float64(a.Re), float64(got.Re), 1e-12)
	assert.InDelta(t, float64(a.Im), float64(got.Im), 1e-12)

	// Division dominated by the imaginary part takes the other branch.
	c := C[float64](2, 0).Div(C[float64](0, 2))
	assert.InDelta(t, 0.0, float64(c.Re), 1e-12)
	assert.InDelta(t, -1.0, float64(c.Im), 1e-12)
}

func TestComplexAbsConj(t *testing.T) {
	a := C[float64](3, -4)
	assert.InDelta(t, 5.0, float64(a.Abs()), 1e-12)

	conj := a.Conj()
	assert.Equal(t, a.Re, conj.Re)
	assert.Equal(t, -a.Im, conj.Im)
}

func TestExpi(t *testing.T) {
	e := Expi[float64](math.Pi / 2)
	assert.InDelta(t, 0.0, float64(e.Re), 1e-12)
	assert.InDelta(t, 1.0, float64(e.Im), 1e-12)
	assert.InDelta(t, 1.0, float64(e.Abs()), 1e-12)
}

func TestJonesMulRightIdentity(t *testing.T) {
	ident := Jones[float64]{C[float64](1, 0), C[float64](0, 0), C[float64](0, 0), C[float64](1, 0)}
	j := Jones[float64]{C[float64](1, 2), C[float64](3, 4), C[float64](5, 6), C[float64](7, 8)}

	assert.Equal(t, j, j.MulRight(ident))
	assert.Equal(t, j, ident.MulRight(j))
}

func TestJonesMulRight(t *testing.T) {
	// Swap matrix on the right swaps columns.
	swap := Jones[float64]{C[float64](0, 0), C[float64](1, 0), C[float64](1, 0), C[float64](0, 0)}
	j := Jones[float64]{C[float64](1, 0), C[float64](2, 0), C[float64](3, 0), C[float64](4, 0)}

	got := j.MulRight(swap)
	want := Jones[float64]{C[float64](2, 0), C[float64](1, 0), C[float64](4, 0), C[float64](3, 0)}
	assert.Equal(t, want, got)
}

func TestIAUOrder(t *testing.T) {
	j := Jones[float64]{C[float64](1, 0), C[float64](2, 0), C[float64](3, 0), C[float64](4, 0)}
	got := j.IAUOrder()
	want := Jones[float64]{C[float64](4, 0), C[float64](3, 0), C[float64](2, 0), C[float64](1, 0)}
	assert.Equal(t, want, got)
}

func TestRotation(t *testing.T) {
	r := Rotation[float64](math.Pi / 2)
	assert.InDelta(t, 0.0, float64(r[0].Re), 1e-12)
	assert.InDelta(t, -1.0, float64(r[1].Re), 1e-12)
	assert.InDelta(t, 1.0, float64(r[2].Re), 1e-12)
	assert.InDelta(t, 0.0, float64(r[3].Re), 1e-12)

	// Rotation by zero is the identity.
	ident := Rotation[float64](0)
	assert.InDelta(t, 1.0, float64(ident[0].Re), 1e-12)
	assert.InDelta(t, 0.0, float64(ident[1].Re), 1e-12)
}

func TestPromoteDemote(t *testing.T) {
	j := Jones[float32]{C[float32](1, 2), C[float32](3, 4), C[float32](5, 6), C[float32](7, 8)}
	assert.Equal(t, j, Demote(Promote(j)))
}

func TestHourAngleDecZenith(t *testing.T) {
	lat := -0.5
	ha, dec := HourAngleDec(0, 0, lat)

	// Zenith at latitude lat transits at ha=0, dec=lat.
	assert.InDelta(t, 0.0, ha, 1e-10)
	assert.InDelta(t, lat, dec, 1e-10)
}

func TestParallacticAngleSymmetry(t *testing.T) {
	lat := -0.46606
	za := 0.3

	// Directions mirrored east/west have opposite parallactic angles.
	east := ParallacticAngle(math.Pi/2, za, lat)
	west := ParallacticAngle(3*math.Pi/2, za, lat)
	assert.InDelta(t, east, -west, 1e-10)
}

func TestApplyParallacticPreservesNorm(t *testing.T) {
	j := Jones[float64]{C[float64](1, 0), C[float64](0, 0), C[float64](0, 0), C[float64](1, 0)}
	rot := ApplyParallactic(j, 0.4, 0.2, -0.46606)

	// Rotating an identity matrix yields an orthogonal matrix.
	norm := 0.0
	for _, e := range rot {
		norm += float64(e.Re*e.Re + e.Im*e.Im)
	}
	assert.InDelta(t, 2.0, norm, 1e-10)
}
