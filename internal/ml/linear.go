package ml

import (
	"fmt"
	"math"
)

// Estimator is a regression model fit on a design matrix.
type Estimator interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) []float64
}

// LinearRegression is ordinary least squares, solved via the normal
// equations.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

func (m *LinearRegression) Fit(x [][]float64, y []float64) error {
	coef, err := solveLeastSquares(x, y, 0)
	if err != nil {
		return fmt.Errorf("linear regression: %w", err)
	}
	m.Intercept = coef[0]
	m.Coef = coef[1:]
	return nil
}

func (m *LinearRegression) Predict(x [][]float64) []float64 {
	return predictLinear(x, m.Coef, m.Intercept)
}

// Ridge is L2-regularized linear regression. The intercept is not
// penalized.
type Ridge struct {
	Alpha     float64
	Coef      []float64
	Intercept float64
}

func (m *Ridge) Fit(x [][]float64, y []float64) error {
	coef, err := solveLeastSquares(x, y, m.Alpha)
	if err != nil {
		return fmt.Errorf("ridge: %w", err)
	}
	m.Intercept = coef[0]
	m.Coef = coef[1:]
	return nil
}

func (m *Ridge) Predict(x [][]float64) []float64 {
	return predictLinear(x, m.Coef, m.Intercept)
}

// Lasso is L1-regularized linear regression fit by cyclic coordinate
// descent on the objective (1/2n)·||y - Xw||² + alpha·||w||₁. The intercept
// is not penalized.
type Lasso struct {
	Alpha   float64
	MaxIter int
	Tol     float64

	Coef      []float64
	Intercept float64
}

func (m *Lasso) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("lasso: bad input shape: %d rows, %d targets", n, len(y))
	}
	p := len(x[0])

	maxIter := m.MaxIter
	if maxIter == 0 {
		maxIter = 1000
	}
	tol := m.Tol
	if tol == 0 {
		tol = 1e-6
	}

	w := make([]float64, p)
	// Column second moments, used as coordinate step denominators.
	z := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			z[j] += x[i][j] * x[i][j]
		}
		z[j] /= float64(n)
	}

	var intercept float64
	for i := 0; i < n; i++ {
		intercept += y[i]
	}
	intercept /= float64(n)

	// residual[i] = y[i] - intercept - x[i]·w
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		residual[i] = y[i] - intercept
	}

	for iter := 0; iter < maxIter; iter++ {
		var maxDelta float64

		for j := 0; j < p; j++ {
			if z[j] == 0 {
				continue
			}
			var rho float64
			for i := 0; i < n; i++ {
				rho += x[i][j] * (residual[i] + w[j]*x[i][j])
			}
			rho /= float64(n)

			next := softThreshold(rho, m.Alpha) / z[j]
			if delta := next - w[j]; delta != 0 {
				for i := 0; i < n; i++ {
					residual[i] -= delta * x[i][j]
				}
				if d := math.Abs(delta); d > maxDelta {
					maxDelta = d
				}
				w[j] = next
			}
		}

		// Re-center the intercept against the current residual.
		var shift float64
		for i := 0; i < n; i++ {
			shift += residual[i]
		}
		shift /= float64(n)
		if shift != 0 {
			intercept += shift
			for i := 0; i < n; i++ {
				residual[i] -= shift
			}
			if d := math.Abs(shift); d > maxDelta {
				maxDelta = d
			}
		}

		if maxDelta < tol {
			break
		}
	}

	m.Coef = w
	m.Intercept = intercept
	return nil
}

func (m *Lasso) Predict(x [][]float64) []float64 {
	return predictLinear(x, m.Coef, m.Intercept)
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

func predictLinear(x [][]float64, coef []float64, intercept float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		v := intercept
		for j, c := range coef {
			v += c * row[j]
		}
		out[i] = v
	}
	return out
}

// solveLeastSquares solves the normal equations for the design matrix x
// with a prepended intercept column, adding alpha to the diagonal of the
// non-intercept entries. Returns [intercept, coef...].
func solveLeastSquares(x [][]float64, y []float64, alpha float64) ([]float64, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("bad input shape: %d rows, %d targets", n, len(y))
	}
	p := len(x[0]) + 1 // intercept column

	xt := func(i, j int) float64 {
		if j == 0 {
			return 1
		}
		return x[i][j-1]
	}

	// A = X'X (+ alpha on the penalized diagonal), b = X'y.
	a := make([][]float64, p)
	for j := range a {
		a[j] = make([]float64, p)
	}
	b := make([]float64, p)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			var s float64
			for i := 0; i < n; i++ {
				s += xt(i, j) * xt(i, k)
			}
			a[j][k] = s
			a[k][j] = s
		}
		if j > 0 {
			a[j][j] += alpha * float64(n)
		}
		var s float64
		for i := 0; i < n; i++ {
			s += xt(i, j) * y[i]
		}
		b[j] = s
	}

	coef, err := solveLinearSystem(a, b)
	if err != nil && alpha == 0 {
		// Singular X'X: retry with a tiny ridge term.
		for j := 1; j < p; j++ {
			a[j][j] += 1e-8 * float64(n)
		}
		coef, err = solveLinearSystem(a, b)
	}
	if err != nil {
		return nil, err
	}
	return coef, nil
}

// solveLinearSystem solves a·x = b by Gaussian elimination with partial
// pivoting. a and b are modified in place.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	p := len(a)
	for col := 0; col < p; col++ {
		pivot := col
		for r := col + 1; r < p; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < p; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < p; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, p)
	for r := p - 1; r >= 0; r-- {
		v := b[r]
		for c := r + 1; c < p; c++ {
			v -= a[r][c] * x[c]
		}
		x[r] = v / a[r][r]
	}
	return x, nil
}
