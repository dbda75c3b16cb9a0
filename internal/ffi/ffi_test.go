package ffi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	obj := &struct{ n int }{n: 42}

	h := r.Put(KindFEEBeam, obj)
	assert.NotZero(t, h)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(KindFEEBeam, h)
	require.NoError(t, err)
	assert.Same(t, obj, got)

	freed, err := r.Free(KindFEEBeam, h)
	require.NoError(t, err)
	assert.Same(t, obj, freed)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryDoubleFree(t *testing.T) {
	r := NewRegistry()
	h := r.Put(KindDevice, "obj")

	_, err := r.Free(KindDevice, h)
	require.NoError(t, err)

	_, err = r.Free(KindDevice, h)
	var stateErr HandleStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, h, stateErr.Handle)
	assert.Equal(t, KindDevice, stateErr.Want)
}

func TestRegistryWrongKind(t *testing.T) {
	r := NewRegistry()
	h := r.Put(KindFEEBeam, "beam")

	_, err := r.Get(KindAnalyticBeam, h)
	assert.ErrorAs(t, err, &HandleStateError{})

	// The object is still live under its real kind.
	_, err = r.Get(KindFEEBeam, h)
	assert.NoError(t, err)
}

func TestRegistryUnknownHandle(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(KindFEEBeam, 12345)
	assert.ErrorAs(t, err, &HandleStateError{})

	_, err = r.Get(KindFEEBeam, 0)
	assert.Error(t, err)
}

func TestRegistryHandlesNeverReused(t *testing.T) {
	r := NewRegistry()

	h1 := r.Put(KindFEEBeam, "a")
	_, err := r.Free(KindFEEBeam, h1)
	require.NoError(t, err)

	h2 := r.Put(KindFEEBeam, "b")
	assert.NotEqual(t, h1, h2)
}

func TestLastError(t *testing.T) {
	SetLastError(nil)
	assert.Equal(t, 0, LastErrorLength())

	SetLastError(errors.New("boom"))
	assert.Equal(t, 5, LastErrorLength())

	buf := make([]byte, 5)
	n := LastErrorMessage(buf)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("boom\x00"), buf)

	// A short buffer is rejected rather than truncated.
	short := make([]byte, 4)
	assert.Equal(t, -1, LastErrorMessage(short))

	SetLastError(nil)
	assert.Equal(t, 0, LastErrorLength())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "FEE beam", KindFEEBeam.String())
	assert.Equal(t, "device Jones buffer", KindJonesBuffer.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
