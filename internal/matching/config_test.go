package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyConfigClassify(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected MatchClass
	}{
		{"perfect score", 1.0, ClassExactEquivalent},
		{"at exact threshold", 0.95, ClassExactEquivalent},
		{"between thresholds", 0.9, ClassFuzzyCandidate},
		{"at fuzzy threshold", 0.8, ClassFuzzyCandidate},
		{"just below fuzzy threshold", 0.79, ClassNoMatch},
		{"zero", 0.0, ClassNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultConfig.Classify(tt.score))
		})
	}
}

func TestFuzzyConfigDefaults(t *testing.T) {
	assert.InDelta(t, 0.8, DefaultConfig.FuzzyThreshold, 0.0001)
	assert.InDelta(t, 0.95, DefaultConfig.ExactThreshold, 0.0001)
}

func TestFuzzyConfigWithOverrides(t *testing.T) {
	t.Run("both overridden", func(t *testing.T) {
		cfg := DefaultConfig.WithOverrides(0.7, 0.9)
		assert.InDelta(t, 0.7, cfg.FuzzyThreshold, 0.0001)
		assert.InDelta(t, 0.9, cfg.ExactThreshold, 0.0001)
	})

	t.Run("zero keeps defaults", func(t *testing.T) {
		cfg := DefaultConfig.WithOverrides(0, 0)
		assert.Equal(t, DefaultConfig, cfg)
	})

	t.Run("partial override", func(t *testing.T) {
		cfg := DefaultConfig.WithOverrides(0.75, 0)
		assert.InDelta(t, 0.75, cfg.FuzzyThreshold, 0.0001)
		assert.InDelta(t, DefaultConfig.ExactThreshold, cfg.ExactThreshold, 0.0001)
	})
}
