package main

import (
	"math"
	"strconv"
)

// Bedrock accepts playsound pitch multipliers from roughly 0.1 to 6. Note
// blocks cover F#3 (0.5) to F#5 (2.0); pitches are folded toward that band
// but never clamped.
const (
	PitchMin = 0.1
	PitchMax = 6.0

	lowestPitch    = 36 // C3, first note that is not folded up
	highestPitch   = 96 // C8, last note that is not folded down
	referencePitch = 54 // F#3 plays at multiplier 0.5

	roundOffDigits = 5
)

// foldPitch moves a MIDI note number into the playable band. Low notes keep
// their pitch class and land in octave 3. High notes use 84 + p*12, which
// does not land back in the band.
func foldPitch(pitch int) (int, bool) {
	if pitch < lowestPitch {
		return pitch%12 + lowestPitch, true
	}
	if pitch > highestPitch {
		return 84 + pitch*12, true
	}
	return pitch, false
}

// MapPitch converts a MIDI note number to a playsound pitch multiplier,
// rounded to five decimals. The second result reports whether the note had to
// be folded.
func MapPitch(pitch int) (float64, bool) {
	folded, repitched := foldPitch(pitch)
	multiplier := 0.5 * math.Pow(2, float64(folded-referencePitch)/12)
	return roundOff(multiplier), repitched
}

func roundOff(v float64) float64 {
	scale := math.Pow10(roundOffDigits)
	return math.Round(v*scale) / scale
}

// formatDecimal renders v with exactly five decimals and no exponent.
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', roundOffDigits, 64)
}
