package service

import "github.com/tutorpulse/reliability-api/internal/models"

// RiskClassifier maps a 30-day reschedule rate to a risk label. Pure; carries
// only its thresholds.
type RiskClassifier struct {
	highThreshold   float64
	mediumThreshold float64
}

// NewRiskClassifier constructs a classifier. Non-positive thresholds fall back
// to the defaults (high at 15%, medium at 10%).
func NewRiskClassifier(highThreshold, mediumThreshold float64) *RiskClassifier {
	if highThreshold <= 0 {
		highThreshold = 15.0
	}
	if mediumThreshold <= 0 {
		mediumThreshold = 10.0
	}
	return &RiskClassifier{highThreshold: highThreshold, mediumThreshold: mediumThreshold}
}

// Classify returns the risk label for a 30-day reschedule rate. Boundary
// values belong to the upper label: a rate exactly at the high threshold is
// high, exactly at the medium threshold is medium.
func (c *RiskClassifier) Classify(rate30d float64) string {
	switch {
	case rate30d >= c.highThreshold:
		return models.RiskHigh
	case rate30d >= c.mediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// HighThreshold exposes the configured high-risk cutoff for persistence
// alongside the score snapshot.
func (c *RiskClassifier) HighThreshold() float64 {
	return c.highThreshold
}
