/*
Package entropy computes the Shannon entropy of label distributions and the
weighted entropy of partitions of them.

Distributions are given as maps from a label value (as a string) to the
number of samples carrying it.
*/
package entropy

import (
	"math"
	"sort"
)

/*
Shannon takes a map of label values to counts and returns its Shannon
entropy in bits: -Σ p·log2(p) with p being the proportion of each label.
A distribution with a single label (or no samples at all) has entropy 0.

Labels are summed in sorted order, so equal distributions always produce
bit-identical results.
*/
func Shannon(counts map[string]int) float64 {
	total := Total(counts)
	if total == 0 {
		return 0.0
	}
	var result float64
	for _, label := range sortedLabels(counts) {
		c := counts[label]
		if c <= 0 {
			continue
		}
		p := float64(c) / float64(total)
		result -= p * math.Log2(p)
	}
	if result <= 0 {
		// -0.0 on pure groups
		return 0.0
	}
	return result
}

/*
Weighted takes the label distributions of the groups of a partition and
returns the sum of the entropy of each group weighted by its share of the
samples of the whole partition. Empty groups contribute nothing and a
partition without samples has weighted entropy 0.
*/
func Weighted(groups ...map[string]int) float64 {
	var total int
	for _, g := range groups {
		total += Total(g)
	}
	if total == 0 {
		return 0.0
	}
	var result float64
	for _, g := range groups {
		n := Total(g)
		if n == 0 {
			continue
		}
		result += float64(n) / float64(total) * Shannon(g)
	}
	return result
}

// Total returns the number of samples in a distribution.
func Total(counts map[string]int) int {
	var total int
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	return total
}

func sortedLabels(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
