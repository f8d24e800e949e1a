// Package stochastic calculates hazard rates (failure rates) as used in
// system reliability modeling.
//
// A hazard rate is the failure probability per unit of time at time t,
// given that a failure has not yet occurred at time t: h(t) = f(t)/R(t),
// where f(t) is a probability density function and R(t) = 1-F(t) is the
// reliability function.
//
// References: Trivedi, "Probability and Statistics with Reliability,
// Queuing and Computer Science Applications"; Grosh, "A Primer of
// Reliability Theory"; Hayter, "Probability and Statistics For Engineers
// and Scientists".
package stochastic

import "math"

// Source supplies uniformly distributed floats in [0.0, 1.0), the same
// contract as math/rand.Rand.Float64. Injecting it lets callers seed
// determinism into otherwise-random hazard evaluation.
type Source interface {
	Float64() float64
}

// ExponentialHazard is a constant failure rate (CFR) model: the
// probability of firing is independent of elapsed time. It is the
// special case of WeibullHazard with shape 1.
//
// mttf is the mean time to failure in seconds.
func ExponentialHazard(src Source, mttf float64) bool {
	lambda := 1.0 / mttf
	return src.Float64() <= lambda
}

// WeibullHazard models all phases of a component's life via the shape
// parameter a: a<1 is a decreasing failure rate (break-in/debugging
// phase), a=1 reduces to the exponential (constant failure rate), a>1 is
// an increasing failure rate (wear-out phase, e.g. a resource leak).
//
// mttf is a slight abuse of statistical precision for this
// parameterization, traded for ease of use.
func WeibullHazard(src Source, shape, mttf, t float64) bool {
	lambda := 1.0 / mttf
	p := shape * math.Pow(lambda, shape) * math.Pow(t, shape-1)
	return src.Float64() <= p
}

// NormalHazard is an increasing failure rate model useful when events
// should arrive at predictable intervals; decreasing sigma sharpens that
// predictability.
//
// mu is the mean time to failure in seconds, sigma the standard
// deviation in seconds, t the elapsed time in seconds since the last
// event. Returns false ("not fired") when t is far enough below mu that
// the Z-table has no coverage.
func NormalHazard(src Source, mu, sigma, t float64) bool {
	f := normalPDF(mu, sigma, t)
	area, ok := zTableSearch((t - mu) / sigma)
	if !ok {
		return false
	}
	h := f / (1 - area)
	return src.Float64() <= h
}

func normalPDF(mu, sigma, t float64) float64 {
	f1 := 1.0 / (sigma * math.Sqrt(2*math.Pi))
	f2 := math.Exp(-0.5 * math.Pow((t-mu)/sigma, 2))
	return f1 * f2
}
