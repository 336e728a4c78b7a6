package genotype

import "fmt"

// Distance counts the loci at which a and b differ.
func Distance(a, b []Locus) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: gene lengths differ: %d != %d", ErrInvalidArgument, len(a), len(b))
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// CrossPoints returns every index i >= 1 where gene[i] differs from gene[i-1].
// For a child of two constant, distinct parents these are its crossover points.
func CrossPoints(gene []Locus) []int {
	var points []int
	for i := 1; i < len(gene); i++ {
		if gene[i] != gene[i-1] {
			points = append(points, i)
		}
	}
	return points
}

// CountLocus counts loci equal to l.
func CountLocus(gene []Locus, l Locus) int {
	n := 0
	for _, v := range gene {
		if v == l {
			n++
		}
	}
	return n
}
