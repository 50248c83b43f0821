// Package sample provides seeded random sub-sampling of index ranges.
// Both samplers are deterministic for a given seed so that a clustering
// run can be reproduced exactly.
package sample

import "math/rand"

// Fraction returns the indices of a Bernoulli sample of n items: each index
// is kept independently with probability frac. frac outside (0, 1) degenerates
// to none or all.
func Fraction(n int, frac float64, seed int64) []int {
	if n <= 0 || frac <= 0 {
		return nil
	}
	if frac >= 1 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]int, 0, int(float64(n)*frac)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < frac {
			out = append(out, i)
		}
	}
	return out
}

// Reservoir returns k indices drawn uniformly without replacement from
// [0, n) using reservoir sampling (algorithm R). The result is sorted by
// construction for i < k and left in reservoir order afterwards; callers
// that need ordered output should sort.
func Reservoir(n, k int, seed int64) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = i
	}
	for i := k; i < n; i++ {
		j := rng.Intn(i + 1)
		if j < k {
			out[j] = i
		}
	}
	return out
}

// Pick materializes a sample of trips (or any slice) by index list.
func Pick[T any](items []T, idx []int) []T {
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(items) {
			out = append(out, items[i])
		}
	}
	return out
}
