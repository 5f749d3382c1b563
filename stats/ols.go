package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a regression design matrix is rank deficient.
var ErrSingular = errors.New("singular design matrix")

// OLSResult holds a least squares fit.
type OLSResult struct {
	Coeffs    []float64
	StdErrors []float64
	SSR       float64
	NObs      int
	LogLik    float64
	AIC       float64
}

// OLS regresses y on the columns of x (one row per observation).
// Coefficients come from the normal equations; standard errors need
// (X'X)^-1, so a singular design is an error.
func OLS(x [][]float64, y []float64) (*OLSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, errors.New("ols: empty or misaligned input")
	}
	k := len(x[0])
	if n <= k {
		return nil, errors.New("ols: not enough observations")
	}

	X := mat.NewDense(n, k, nil)
	for i, row := range x {
		X.SetRow(i, row)
	}
	Y := mat.NewVecDense(n, append([]float64(nil), y...))

	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, ErrSingular
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), Y)
	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	var resid mat.VecDense
	resid.SubVec(Y, &fitted)
	ssr := mat.Dot(&resid, &resid)

	s2 := ssr / float64(n-k)
	coeffs := make([]float64, k)
	se := make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		se[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}

	nf := float64(n)
	llf := -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)

	return &OLSResult{
		Coeffs:    coeffs,
		StdErrors: se,
		SSR:       ssr,
		NObs:      n,
		LogLik:    llf,
		AIC:       -2*llf + 2*float64(k),
	}, nil
}
