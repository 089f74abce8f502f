package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrZeroVector is returned when a vector has zero L2 norm and therefore no
// direction. Callers treat it as "no usable face", not a crash.
var ErrZeroVector = errors.New("zero-norm vector")

// Normalize scales v to unit L2 norm, in place, and returns it.
func Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, ErrZeroVector
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v, nil
}

// Similarity returns the cosine similarity of two unit vectors, which is
// their dot product. Accumulates in float64 and clamps to [-1, 1] to absorb
// floating point error.
func Similarity(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return dot
}

// Encode packs a vector as little-endian float32 bytes, the on-disk format.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// Decode unpacks a little-endian float32 blob. The blob length must be a
// multiple of 4 and, when dim > 0, decode to exactly dim values.
func Decode(blob []byte, dim int) ([]float32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has invalid length %d", len(blob))
	}
	n := len(blob) / 4
	if dim > 0 && n != dim {
		return nil, fmt.Errorf("embedding has %d values, want %d", n, dim)
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v, nil
}
