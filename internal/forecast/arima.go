package forecast

import (
	"context"
	"errors"
	"math"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/mat"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// ARIMA is an ARIMA(P, D, 0) model fitted by conditional least squares on
// the D-times differenced series. It is refitted on every call.
type ARIMA struct {
	P int
	D int
}

type arFit struct {
	c      float64
	phi    []float64
	sigma2 float64
}

// next returns the one-step prediction following y.
func (f arFit) next(y []float64) float64 {
	v := f.c
	for i, phi := range f.phi {
		v += phi * y[len(y)-1-i]
	}
	return v
}

func (a ARIMA) Forecast(_ context.Context, history []Observation, horizon int) (Raw, error) {
	x := prices(history)
	if len(x) < a.D+3 {
		return Raw{}, ErrInsufficientData
	}
	y := difference(x, a.D)

	fit, err := fitAR(y, a.P)
	if err != nil {
		return Raw{}, err
	}

	ext := append([]float64(nil), x...)
	diffs := append([]float64(nil), y...)
	psi := psiWeights(fit.phi, a.D, horizon)

	raw := Raw{
		Predicted: make([]float64, horizon),
		Upper:     make([]float64, horizon),
		Lower:     make([]float64, horizon),
	}
	var cum float64
	for h := 0; h < horizon; h++ {
		yhat := fit.next(diffs)
		diffs = append(diffs, yhat)
		xhat := integrate(ext, yhat, a.D)
		ext = append(ext, xhat)

		cum += psi[h] * psi[h]
		sd := math.Sqrt(fit.sigma2 * cum)
		raw.Predicted[h] = xhat
		raw.Upper[h] = xhat + z95*sd
		raw.Lower[h] = xhat - z95*sd
	}
	raw.Accuracy = inSampleAccuracy(x, y, fit, a.D)
	return raw, nil
}

// fitAR fits y_t = c + sum(phi_i * y_{t-i}) and lowers the order until the
// design matrix is solvable.
func fitAR(y []float64, p int) (arFit, error) {
	if limit := (len(y) - 2) / 2; p > limit {
		p = limit
	}
	if p < 0 {
		p = 0
	}
	for ; p >= 0; p-- {
		fit, err := solveAR(y, p)
		if err == nil {
			return fit, nil
		}
	}
	return arFit{}, errors.New("arima: no solvable autoregressive order")
}

func solveAR(y []float64, p int) (arFit, error) {
	rows := len(y) - p
	if rows < p+1 {
		return arFit{}, ErrInsufficientData
	}
	cols := p + 1
	design := mat.NewDense(rows, cols, nil)
	target := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		design.Set(r, 0, 1)
		for i := 1; i <= p; i++ {
			design.Set(r, i, y[t-i])
		}
		target.SetVec(r, y[t])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, target); err != nil {
		return arFit{}, err
	}

	fit := arFit{c: beta.AtVec(0), phi: make([]float64, p)}
	for i := 0; i < p; i++ {
		fit.phi[i] = beta.AtVec(i + 1)
	}
	for _, v := range fit.phi {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return arFit{}, errInvalidModelValue
		}
	}

	var sse float64
	for t := p; t < len(y); t++ {
		e := y[t] - fit.next(y[:t])
		sse += e * e
	}
	dof := rows - cols
	if dof <= 0 {
		dof = rows
	}
	fit.sigma2 = sse / float64(dof)
	return fit, nil
}

// difference applies the first-difference operator d times.
func difference(x []float64, d int) []float64 {
	out := append([]float64(nil), x...)
	for k := 0; k < d; k++ {
		next := make([]float64, len(out)-1)
		for i := 1; i < len(out); i++ {
			next[i-1] = out[i] - out[i-1]
		}
		out = next
	}
	return out
}

// integrate turns a predicted d-th difference into the next level value
// following hist.
func integrate(hist []float64, yhat float64, d int) float64 {
	v := yhat
	sign := 1.0
	for k := 1; k <= d; k++ {
		v += sign * binomial(d, k) * hist[len(hist)-k]
		sign = -sign
	}
	return v
}

// psiWeights returns the MA(infinity) weights of (1 - phi(B))(1 - B)^d.
func psiWeights(phi []float64, d, n int) []float64 {
	// AR polynomial coefficients of the integrated process.
	poly := make([]float64, len(phi)+1)
	poly[0] = 1
	for i, v := range phi {
		poly[i+1] = -v
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, v := range poly {
			next[i] += v
			next[i+1] -= v
		}
		poly = next
	}

	psi := make([]float64, n)
	if n == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < n; j++ {
		for k := 1; k < len(poly) && k <= j; k++ {
			psi[j] += -poly[k] * psi[j-k]
		}
	}
	return psi
}

// inSampleAccuracy is 100 minus the mean absolute percentage error of the
// one-step in-sample predictions.
func inSampleAccuracy(x, y []float64, fit arFit, d int) null.Float {
	p := len(fit.phi)
	var sum float64
	var n int
	for j := p; j < len(y); j++ {
		t := j + d
		actual := x[t]
		if actual == 0 {
			continue
		}
		pred := integrate(x[:t], fit.next(y[:j]), d)
		sum += math.Abs((actual - pred) / actual)
		n++
	}
	if n == 0 {
		return null.Float{}
	}
	return null.FloatFrom(100 - 100*sum/float64(n))
}

func binomial(n, k int) float64 {
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}
