package calculator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// valid drops NaN entries.
func valid(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// centralMoment returns the k-th population central moment.
func centralMoment(values []float64, k float64) float64 {
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += math.Pow(v-m, k)
	}
	return sum / float64(len(values))
}

// sampleStd uses the n-1 denominator. Fewer than two values give NaN.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return math.Sqrt(centralMoment(values, 2))
}

// skewness is the biased sample skewness g1.
func skewness(values []float64) float64 {
	m2 := centralMoment(values, 2)
	if len(values) < 2 || m2 == 0 {
		return math.NaN()
	}
	return centralMoment(values, 3) / math.Pow(m2, 1.5)
}

// kurtosis is the biased excess kurtosis g2.
func kurtosis(values []float64) float64 {
	m2 := centralMoment(values, 2)
	if len(values) < 2 || m2 == 0 {
		return math.NaN()
	}
	return centralMoment(values, 4)/(m2*m2) - 3
}

// percentile uses linear interpolation between closest ranks; p is in [0,100].
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (rank-float64(lo))*(s[hi]-s[lo])
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if populationStd(x) == 0 || populationStd(y) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
