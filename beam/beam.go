// Package beam models the intensity profile of a Gaussian beam measured
// with the knife-edge method: a sharp edge is translated across the beam
// while the transmitted power is recorded, tracing out a complementary
// error function.
package beam

import (
	"fmt"
	"math"
)

// NumParams is the number of free parameters of the knife-edge model.
const NumParams = 4

// Erfc evaluates the knife-edge intensity model at every position in x.
//
// The power transmitted past the edge at position x_i is
//
//	pOffset + (pMax/2) * erfc((x_i - xHalf) / (w/sqrt2))
//
// where pOffset is the background level (room lights, detector dark
// current), pMax is the unobscured beam power, xHalf is the edge position
// at which half the beam is clipped and w is the 1/e^2 beam radius.
//
// Position and power series must use units of the same degree of
// magnitude, e.g. (mm, mW) or (m, W); this is a caller contract, not
// something the model can check. The radius is not validated either: w == 0
// degenerates to a step profile with a NaN exactly at x == xHalf, following
// IEEE float semantics.
func Erfc(x []float64, pOffset, pMax, xHalf, w float64) []float64 {
	out := make([]float64, len(x))
	scale := w / math.Sqrt2
	for i, xi := range x {
		out[i] = pOffset + pMax/2*math.Erfc((xi-xHalf)/scale)
	}
	return out
}

// Model is Erfc in the generic fit.ModelFunc shape. The parameter vector is
// (pOffset, pMax, xHalf, w).
func Model(x, params []float64) ([]float64, error) {
	if len(params) != NumParams {
		return nil, fmt.Errorf("beam model takes %d parameters, got %d", NumParams, len(params))
	}
	return Erfc(x, params[0], params[1], params[2], params[3]), nil
}
