package types

import "math"

// Evidence is the sign of an observation fed into Confidence.Update.
type Evidence float64

const (
	Positive Evidence = 1
	Negative Evidence = -1
)

// Confidence is the Bayesian posterior carried on every node (§3).
type Confidence struct {
	Mu      float64 // posterior mean
	SigmaSq float64 // posterior variance
	N       int64   // observation count; monotone non-decreasing (I4)
	Tau     int64   // ms timestamp of the last update
}

// NewConfidence seeds a fresh posterior at the given initial mean, with a
// wide prior variance and n=1 (the initial assertion is itself an observation).
func NewConfidence(initial float64, nowMs int64) Confidence {
	return Confidence{Mu: clamp01(initial), SigmaSq: 0.25, N: 1, Tau: nowMs}
}

// Effective is the conservative estimate used throughout ranking:
// mu − sqrt(sigma_sq).
func (c Confidence) Effective() float64 {
	v := c.Mu - math.Sqrt(math.Max(c.SigmaSq, 0))
	return v
}

// Update applies one observation of sign e with weight w, per §3's update
// law:
//
//	n += 1; α = 1/n; mu += α·w·(e−mu); sigma_sq *= (1−α); tau = now
func (c Confidence) Update(e Evidence, w float64, nowMs int64) Confidence {
	c.N++
	alpha := 1.0 / float64(c.N)
	c.Mu += alpha * w * (float64(e) - c.Mu)
	c.Mu = clamp01(c.Mu)
	c.SigmaSq *= 1 - alpha
	if c.SigmaSq < 0 {
		c.SigmaSq = 0
	}
	c.Tau = nowMs
	return c
}

// Strengthen applies §4.5's strengthen(id, Δ): an absolute increase to Mu,
// sigma_sq shrunk by (1 − 1/n), n incremented. Δ must be ≥ 0 by contract;
// Mu and Effective() are both clamped to [0,1] (P4).
func (c Confidence) Strengthen(delta float64) Confidence {
	return c.applyDelta(delta)
}

// Weaken applies §4.5's weaken(id, Δ): symmetric to Strengthen with a
// negative delta.
func (c Confidence) Weaken(delta float64) Confidence {
	return c.applyDelta(-delta)
}

func (c Confidence) applyDelta(delta float64) Confidence {
	c.N++
	alpha := 1.0 / float64(c.N)
	c.Mu = clamp01(c.Mu + delta)
	c.SigmaSq *= 1 - alpha
	if c.SigmaSq < 0 {
		c.SigmaSq = 0
	}
	// Effective() = Mu − sqrt(SigmaSq); bound SigmaSq so it can't drive
	// Effective() below 0 (P4's clamp applies to Effective(), not just Mu).
	if maxSigmaSq := c.Mu * c.Mu; c.SigmaSq > maxSigmaSq {
		c.SigmaSq = maxSigmaSq
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
