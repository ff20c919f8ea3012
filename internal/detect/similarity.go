// Package detect scores captured audio frames against the splash template.
package detect

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Below this many multiply-adds the direct correlation beats the FFT setup cost.
const directCorrelationLimit = 1 << 16

// Normalize scales samples in place so the peak magnitude is just under 1.
// Silent frames are left untouched.
func Normalize(samples []float64) []float64 {
	peak := Peak(samples)
	if peak == 0 {
		return samples
	}
	floats.Scale(1/(peak+1e-10), samples)
	return samples
}

// Peak returns max |x|.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Volume returns the mean absolute amplitude.
func Volume(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Norm(samples, 1) / float64(len(samples))
}

// Similarity compares two signals. Equal lengths use the Pearson
// coefficient; otherwise the shorter signal slides over the longer one and
// the best normalized cross-correlation over the fully overlapping offsets
// is returned.
func Similarity(data, template []float64) float64 {
	if len(data) == 0 || len(template) == 0 {
		return 0
	}

	if len(data) == len(template) {
		r := stat.Correlation(data, template, nil)
		if math.IsNaN(r) {
			return 0
		}
		return r
	}

	a, b := data, template
	if len(a) < len(b) {
		a, b = b, a
	}

	norm := math.Sqrt(floats.Dot(a, a) * floats.Dot(b, b))
	if norm == 0 {
		return 0
	}
	return floats.Max(CorrelateValid(a, b)) / norm
}

// CorrelateValid returns c[k] = sum_i a[k+i]*b[i] for k in [0, len(a)-len(b)].
// len(a) must be >= len(b).
func CorrelateValid(a, b []float64) []float64 {
	lags := len(a) - len(b) + 1
	if lags <= 0 || len(b) == 0 {
		return nil
	}
	if lags*len(b) <= directCorrelationLimit {
		return correlateDirect(a, b)
	}
	return correlateFFT(a, b)
}

func correlateDirect(a, b []float64) []float64 {
	out := make([]float64, len(a)-len(b)+1)
	for k := range out {
		out[k] = floats.Dot(a[k:k+len(b)], b)
	}
	return out
}

// correlateFFT computes the same lags through A * conj(B). Padding to a
// power of two >= len(a) keeps the valid lags free of wrap-around.
func correlateFFT(a, b []float64) []float64 {
	n := nextPow2(len(a))
	fft := fourier.NewFFT(n)

	pa := make([]float64, n)
	copy(pa, a)
	pb := make([]float64, n)
	copy(pb, b)

	ca := fft.Coefficients(nil, pa)
	cb := fft.Coefficients(nil, pb)
	for i := range ca {
		ca[i] *= complex(real(cb[i]), -imag(cb[i]))
	}

	seq := fft.Sequence(nil, ca)
	out := seq[:len(a)-len(b)+1]
	floats.Scale(1/float64(n), out)
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Progress maps a similarity onto the 0..100 level meter, relative to the
// current threshold.
func Progress(similarity, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Min(100, math.Max(0, similarity/threshold*100))
}
