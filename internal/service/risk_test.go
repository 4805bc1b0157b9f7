package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutorpulse/reliability-api/internal/models"
)

func TestRiskClassifierBoundaries(t *testing.T) {
	classifier := NewRiskClassifier(15.0, 10.0)

	cases := []struct {
		name string
		rate float64
		want string
	}{
		{"well above high", 42.5, models.RiskHigh},
		{"exactly high threshold", 15.0, models.RiskHigh},
		{"just below high", 14.99, models.RiskMedium},
		{"exactly medium threshold", 10.0, models.RiskMedium},
		{"just below medium", 9.99, models.RiskLow},
		{"zero", 0, models.RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.Classify(tc.rate))
		})
	}
}

func TestRiskClassifierDefaults(t *testing.T) {
	classifier := NewRiskClassifier(0, 0)
	assert.Equal(t, 15.0, classifier.HighThreshold())
	assert.Equal(t, models.RiskHigh, classifier.Classify(15.0))
	assert.Equal(t, models.RiskMedium, classifier.Classify(10.0))
	assert.Equal(t, models.RiskLow, classifier.Classify(9.0))
}

func TestRiskClassifierCustomThresholds(t *testing.T) {
	classifier := NewRiskClassifier(20.0, 5.0)
	assert.Equal(t, models.RiskHigh, classifier.Classify(20.0))
	assert.Equal(t, models.RiskMedium, classifier.Classify(19.99))
	assert.Equal(t, models.RiskMedium, classifier.Classify(5.0))
	assert.Equal(t, models.RiskLow, classifier.Classify(4.99))
}
