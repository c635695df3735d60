package ml

// MeanSquaredError returns the mean of squared residuals.
func MeanSquaredError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var ss float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ss += d * d
	}
	return ss / float64(len(yTrue))
}

// R2Score returns the coefficient of determination. A constant target with
// nonzero residuals scores 0; a perfect fit scores 1.
func R2Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		r := yTrue[i] - yPred[i]
		ssRes += r * r
		d := yTrue[i] - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
