package beam

import (
	"fmt"
	"math"
)

// Parameters holds the physical parameters of a knife-edge profile.
type Parameters struct {
	POffset float64 // background power level
	PMax    float64 // unobscured beam power
	XHalf   float64 // edge position at half clip
	W       float64 // 1/e^2 beam radius
}

// Slice returns the parameters as the flat vector used by the fitter, in
// the order (pOffset, pMax, xHalf, w).
func (p Parameters) Slice() []float64 {
	return []float64{p.POffset, p.PMax, p.XHalf, p.W}
}

// FromSlice is the inverse of Slice.
func FromSlice(v []float64) (Parameters, error) {
	if len(v) != NumParams {
		return Parameters{}, fmt.Errorf("expected %d parameters, got %d", NumParams, len(v))
	}
	return Parameters{POffset: v[0], PMax: v[1], XHalf: v[2], W: v[3]}, nil
}

// Validate checks the physical bounds w > 0 and pMax >= 0. Evaluate and
// Model never call it; callers who want the check opt in.
func (p Parameters) Validate() error {
	if p.W <= 0 {
		return fmt.Errorf("beam radius must be positive, got %v", p.W)
	}
	if p.PMax < 0 {
		return fmt.Errorf("beam power must be non-negative, got %v", p.PMax)
	}
	return nil
}

// Evaluate returns the modeled transmitted power at every position in x.
func (p Parameters) Evaluate(x []float64) []float64 {
	return Erfc(x, p.POffset, p.PMax, p.XHalf, p.W)
}

// Diameter returns the 1/e^2 beam diameter 2w.
func (p Parameters) Diameter() float64 {
	return 2 * p.W
}

// EdgeWidth returns the knife travel between the positions where the
// transmitted power (above background) drops from the hi fraction of pMax
// to the lo fraction. EdgeWidth(0.1, 0.9) is the usual 10-90 width,
// about 1.2817*w. Fractions must satisfy 0 < lo < hi < 1.
func (p Parameters) EdgeWidth(lo, hi float64) (float64, error) {
	if !(lo > 0 && hi < 1 && lo < hi) {
		return 0, fmt.Errorf("clip fractions must satisfy 0 < lo < hi < 1, got %v and %v", lo, hi)
	}
	return p.W / math.Sqrt2 * (math.Erfinv(1-2*lo) - math.Erfinv(1-2*hi)), nil
}
