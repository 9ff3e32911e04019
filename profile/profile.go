// Package profile ties the beam model and the curve fitter together into a
// complete knife-edge scan analysis: seed a guess from the raw samples, run
// the fit and report the fitted parameters with their uncertainties.
package profile

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"beamprofile/beam"
	"beamprofile/fit"
)

// Scan is one knife-edge measurement run: transmitted power sampled while
// the edge translates across the beam. Positions and powers are paired by
// index and must use units of the same degree of magnitude.
type Scan struct {
	x []float64
	y []float64
}

// NewScan wraps paired position and power series.
func NewScan(x, y []float64) (*Scan, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("position and power series differ in length: %d vs %d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("scan is empty")
	}
	return &Scan{x: x, y: y}, nil
}

// Positions returns the edge position series.
func (s *Scan) Positions() []float64 { return s.x }

// Powers returns the transmitted power series.
func (s *Scan) Powers() []float64 { return s.y }

// InitialGuess seeds a fit from the scan itself: the background from the
// lowest sample, the peak from the sample range, the half point from the
// first sample at or below the mid level and the radius from a quarter of
// the scanned span.
func (s *Scan) InitialGuess() beam.Parameters {
	minY, maxY := s.y[0], s.y[0]
	for _, v := range s.y[1:] {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	mid := minY + (maxY-minY)/2
	xHalf := s.x[0]
	for i, v := range s.y {
		if v <= mid {
			xHalf = s.x[i]
			break
		}
	}

	minX, maxX := s.x[0], s.x[0]
	for _, v := range s.x[1:] {
		minX = math.Min(minX, v)
		maxX = math.Max(maxX, v)
	}
	w := (maxX - minX) / 4
	if w == 0 {
		w = 1
	}

	return beam.Parameters{POffset: minY, PMax: maxY - minY, XHalf: xHalf, W: w}
}

// Result is a completed knife-edge fit.
type Result struct {
	Params     beam.Parameters
	Stderr     beam.Parameters // square roots of the covariance diagonal
	Covariance *mat.SymDense
	Residuals  []float64
	RSS        float64
}

// Width1090 is the 10-90 knife travel of the fitted beam.
func (r *Result) Width1090() float64 {
	width, _ := r.Params.EdgeWidth(0.1, 0.9)
	return width
}

// Fit runs a single least-squares solve from the given guess.
func Fit(s *Scan, guess beam.Parameters) (*Result, error) {
	startTime := time.Now()
	log.WithFields(log.Fields{
		"samples": len(s.x),
		"guess":   guess,
	}).Debug("Fitting knife-edge scan")

	params, cov, err := fit.Curve(beam.Model, s.x, s.y, guess.Slice())
	if err != nil {
		return nil, fmt.Errorf("failed to fit scan: %w", err)
	}

	fitted, err := beam.FromSlice(params)
	if err != nil {
		return nil, fmt.Errorf("failed to read fitted parameters: %w", err)
	}

	stderr := make([]float64, len(params))
	for i := range stderr {
		stderr[i] = math.Sqrt(cov.At(i, i))
	}
	uncertainty, err := beam.FromSlice(stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter uncertainties: %w", err)
	}

	res := &Result{Params: fitted, Stderr: uncertainty, Covariance: cov}

	modeled := fitted.Evaluate(s.x)
	res.Residuals = make([]float64, len(s.y))
	for i, yi := range s.y {
		res.Residuals[i] = yi - modeled[i]
		res.RSS += res.Residuals[i] * res.Residuals[i]
	}

	log.WithFields(log.Fields{
		"params": fitted,
		"rss":    res.RSS,
		"time":   time.Since(startTime),
	}).Debug("Knife-edge fit converged")

	return res, nil
}

// FitAuto is Fit seeded with InitialGuess.
func FitAuto(s *Scan) (*Result, error) {
	return Fit(s, s.InitialGuess())
}
