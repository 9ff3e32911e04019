// Package fit wraps a Levenberg-Marquardt nonlinear least-squares solver
// behind the plain "model + data + initial guess" surface of a curve fit.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// ModelFunc evaluates a model at every position in x for the given
// parameter vector and returns a series of the same length as x.
type ModelFunc func(x, params []float64) ([]float64, error)

var (
	// ErrDimensionMismatch reports input series whose shapes do not line up.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNoConvergence reports a solve that failed to reduce the residuals
	// to a usable optimum.
	ErrNoConvergence = errors.New("optimization did not converge")
)

// Curve fits model to (xData, yData) by minimizing the sum of squared
// residuals sum((yData_i - model(xData, params)_i)^2), starting from
// initialGuess. It returns the fitted parameter vector, ordered like the
// guess, and its covariance matrix, estimated as s^2 (J^T J)^-1 from the
// Jacobian at the solution with s^2 = RSS/(n-p). When the fit is
// under-determined or the Jacobian is singular, the covariance comes back
// filled with +Inf instead of failing, matching standard least-squares
// solver behavior.
//
// A single solver invocation is made: no re-seeding on failure. The caller
// must pick a better initial guess and call again. Model errors, whether at
// the guess or while the solver explores the parameter space, propagate to
// the caller unchanged.
func Curve(model ModelFunc, xData, yData, initialGuess []float64) ([]float64, *mat.SymDense, error) {
	if len(xData) != len(yData) {
		return nil, nil, fmt.Errorf("%w: len(x)=%d, len(y)=%d", ErrDimensionMismatch, len(xData), len(yData))
	}
	if len(xData) == 0 {
		return nil, nil, fmt.Errorf("%w: no data points", ErrDimensionMismatch)
	}
	if len(initialGuess) == 0 {
		return nil, nil, fmt.Errorf("%w: empty initial guess", ErrDimensionMismatch)
	}

	// One evaluation up front surfaces model/guess arity problems before
	// the solver starts.
	probe, err := model(xData, initialGuess)
	if err != nil {
		return nil, nil, err
	}
	if len(probe) != len(xData) {
		return nil, nil, fmt.Errorf("%w: model returned %d values for %d positions",
			ErrDimensionMismatch, len(probe), len(xData))
	}

	// The solver callbacks cannot return an error, so the first model
	// failure during optimization is captured here and surfaced after the
	// solve; dst is zeroed to keep the solver's linear algebra defined.
	var modelErr error
	residuals := func(dst, params []float64) {
		y, err := model(xData, params)
		if err == nil && len(y) != len(dst) {
			err = fmt.Errorf("%w: model returned %d values for %d positions",
				ErrDimensionMismatch, len(y), len(xData))
		}
		if err != nil {
			if modelErr == nil {
				modelErr = err
			}
			for i := range dst {
				dst[i] = 0
			}
			return
		}
		for i := range dst {
			dst[i] = y[i] - yData[i]
		}
	}

	guess := append([]float64(nil), initialGuess...)
	numJac := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        len(guess),
		Size:       len(xData),
		Func:       residuals,
		Jac:        numJac.Jac,
		InitParams: guess,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := lm.LM(problem, &lm.Settings{Iterations: 200, ObjectiveTol: 1e-16})
	if modelErr != nil {
		return nil, nil, modelErr
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoConvergence, err)
	}

	params := append([]float64(nil), results.X...)
	for _, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: non-finite parameter estimate", ErrNoConvergence)
		}
	}

	cov, err := covariance(model, xData, yData, params)
	if err != nil {
		return nil, nil, err
	}
	return params, cov, nil
}

// covariance estimates s^2 (J^T J)^-1 at the fitted parameters, taking the
// Jacobian by central differences. Under-determined (n <= p) or singular
// systems yield +Inf entries.
func covariance(model ModelFunc, xData, yData, params []float64) (*mat.SymDense, error) {
	n, p := len(xData), len(params)
	cov := mat.NewSymDense(p, nil)

	if n <= p {
		return infFill(cov), nil
	}

	jac, err := jacobian(model, xData, params)
	if err != nil {
		return nil, err
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		return infFill(cov), nil
	}

	fitted, err := model(xData, params)
	if err != nil {
		return nil, err
	}
	rss := 0.0
	for i, yi := range yData {
		r := yi - fitted[i]
		rss += r * r
	}
	s2 := rss / float64(n-p)

	for i := 0; i < p; i++ {
		// Symmetrize: the inverse of J^T J is symmetric up to round-off.
		for j := i; j < p; j++ {
			cov.SetSym(i, j, s2*(inv.At(i, j)+inv.At(j, i))/2)
		}
	}
	return cov, nil
}

func infFill(cov *mat.SymDense) *mat.SymDense {
	p, _ := cov.Dims()
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			cov.SetSym(i, j, math.Inf(1))
		}
	}
	return cov
}

// jacobian builds the n x p matrix of model derivatives with respect to
// each parameter, by central differences with a relative step.
func jacobian(model ModelFunc, xData, params []float64) (*mat.Dense, error) {
	n, p := len(xData), len(params)
	jac := mat.NewDense(n, p, nil)
	work := append([]float64(nil), params...)
	for j := 0; j < p; j++ {
		h := 1e-6 * math.Abs(work[j])
		if h == 0 {
			h = 1e-6
		}
		orig := work[j]
		work[j] = orig + h
		plus, err := model(xData, work)
		if err != nil {
			return nil, err
		}
		work[j] = orig - h
		minus, err := model(xData, work)
		if err != nil {
			return nil, err
		}
		work[j] = orig
		if len(plus) != n || len(minus) != n {
			return nil, fmt.Errorf("%w: model returned %d/%d values for %d positions",
				ErrDimensionMismatch, len(plus), len(minus), n)
		}
		for i := 0; i < n; i++ {
			jac.Set(i, j, (plus[i]-minus[i])/(2*h))
		}
	}
	return jac, nil
}
