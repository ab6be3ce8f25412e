package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldPitchLow(t *testing.T) {
	for p := 0; p < 36; p++ {
		folded, repitched := foldPitch(p)
		assert.Equal(t, p%12+36, folded, "pitch %d", p)
		assert.True(t, repitched, "pitch %d", p)
		assert.GreaterOrEqual(t, folded, 36)
		assert.Less(t, folded, 48)
	}
}

func TestFoldPitchHigh(t *testing.T) {
	for p := 97; p <= 127; p++ {
		folded, repitched := foldPitch(p)
		assert.Equal(t, 84+p*12, folded, "pitch %d", p)
		assert.True(t, repitched, "pitch %d", p)
	}
}

func TestFoldPitchInRange(t *testing.T) {
	for p := 36; p <= 96; p++ {
		folded, repitched := foldPitch(p)
		assert.Equal(t, p, folded)
		assert.False(t, repitched, "pitch %d", p)
	}
}

func TestMapPitchFormula(t *testing.T) {
	previous := 0.0
	for p := 36; p <= 96; p++ {
		multiplier, repitched := MapPitch(p)
		assert.False(t, repitched)

		want := math.Round(0.5*math.Pow(2, float64(p-54)/12)*1e5) / 1e5
		assert.Equal(t, want, multiplier, "pitch %d", p)
		assert.Greater(t, multiplier, previous, "multiplier must increase at pitch %d", p)
		previous = multiplier
	}
}

func TestMapPitchKnownValues(t *testing.T) {
	tests := []struct {
		name      string
		pitch     int
		want      string
		repitched bool
	}{
		{"reference F#3", 54, "0.50000", false},
		{"middle C", 60, "0.70711", false},
		{"F#4", 66, "1.00000", false},
		{"F#5", 78, "2.00000", false},
		{"C3 lower bound", 36, "0.17678", false},
		{"C8 upper bound", 96, "5.65685", false},
		{"C0 folds to C3", 0, "0.17678", true},
		{"35 folds to 47", 35, "0.33371", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			multiplier, repitched := MapPitch(tt.pitch)
			assert.Equal(t, tt.want, formatDecimal(multiplier))
			assert.Equal(t, tt.repitched, repitched)
		})
	}
}

func TestMapPitchHighFoldLeavesRange(t *testing.T) {
	multiplier, repitched := MapPitch(97)
	assert.True(t, repitched)
	assert.Greater(t, multiplier, PitchMax)

	// no exponent notation even for enormous multipliers
	assert.NotContains(t, formatDecimal(multiplier), "e")
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "0.80000", formatDecimal(0.8))
	assert.Equal(t, "1.00000", formatDecimal(1))
	assert.Equal(t, "0.00000", formatDecimal(0))
	assert.Equal(t, "0.12346", formatDecimal(0.123456))
}
