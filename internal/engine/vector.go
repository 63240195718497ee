package engine

// Vector helpers used by formulas. Inputs are never modified.

// Zeros returns n zeros.
func Zeros(n int) []float64 { return make([]float64, n) }

// Add returns the element-wise sum of vs.
func Add(vs ...[]float64) []float64 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i, x := range v {
			out[i] += x
		}
	}
	return out
}

// Sub returns a - b.
func Sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Mul returns a * b element-wise.
func Mul(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// Scale returns a * k.
func Scale(a []float64, k float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		out[i] = x * k
	}
	return out
}

// Map applies fn to each element.
func Map(a []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		out[i] = fn(x)
	}
	return out
}
