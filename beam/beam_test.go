package beam_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"beamprofile/beam"
)

func TestErfcLengthAndFiniteness(t *testing.T) {
	for _, n := range []int{0, 1, 5, 100} {
		x := make([]float64, n)
		for i := range x {
			x[i] = -3 + 6*float64(i)/float64(n)
		}
		out := beam.Erfc(x, 0.1, 2.0, 0.5, 0.8)
		require.Len(t, out, n)
		for i, v := range out {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "entry %d is not finite", i)
		}
	}
}

func TestErfcAtHalfPoint(t *testing.T) {
	// erfc(0) == 1 exactly, so the half point is pOffset + pMax/2 exactly.
	pOffset, pMax, xHalf := 0.1, 2.0, 0.35
	out := beam.Erfc([]float64{xHalf}, pOffset, pMax, xHalf, 0.7)
	require.Equal(t, pOffset+pMax/2, out[0])
}

func TestErfcAsymptotes(t *testing.T) {
	pOffset, pMax, xHalf, w := 0.1, 2.0, 0.0, 1.0
	out := beam.Erfc([]float64{xHalf - 1000*w, xHalf + 1000*w}, pOffset, pMax, xHalf, w)
	require.InDelta(t, pOffset+pMax, out[0], 1e-12, "fully unobscured side")
	require.InDelta(t, pOffset, out[1], 1e-12, "fully blocked side")
}

func TestErfcMonotonicDecrease(t *testing.T) {
	x := make([]float64, 201)
	for i := range x {
		x[i] = -5 + float64(i)/20
	}
	out := beam.Erfc(x, 0.1, 2.0, 0.0, 1.0)
	for i := 1; i < len(out); i++ {
		require.Less(t, out[i], out[i-1], "power must decrease as the edge advances")
	}
}

func TestErfcWorkedExample(t *testing.T) {
	out := beam.Erfc([]float64{-2, -1, 0, 1, 2}, 0.1, 2.0, 0.0, 1.0)
	require.InDelta(t, 2.1, out[0], 1e-4)
	require.Equal(t, 1.1, out[2])
	require.InDelta(t, 0.1, out[4], 1e-4)
	for i := 1; i < len(out); i++ {
		require.Less(t, out[i], out[i-1])
	}
}

func TestModelParameterCount(t *testing.T) {
	x := []float64{0, 1, 2}

	out, err := beam.Model(x, []float64{0.1, 2.0, 0.0, 1.0})
	require.NoError(t, err)
	require.Len(t, out, len(x))

	_, err = beam.Model(x, []float64{0.1, 2.0, 0.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "4 parameters")
}

func ExampleErfc() {
	x := []float64{-2, -1, 0, 1, 2}
	for _, v := range beam.Erfc(x, 0.1, 2.0, 0.0, 1.0) {
		fmt.Printf("%.4f\n", v)
	}
	// Output:
	// 2.0999
	// 2.0545
	// 1.1000
	// 0.1455
	// 0.1001
}
