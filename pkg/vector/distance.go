package vector

// SquaredL2 returns the squared Euclidean distance between a and b.
// Vectors of different length are compared over the shorter prefix.
func SquaredL2(a, b []float32) float32 {
	n := min(len(a), len(b))

	var sum float32
	for i := range n {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
