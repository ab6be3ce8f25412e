package main

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultBPM = 120.0

// TempoEvent represents a tempo change in the MIDI file
type TempoEvent struct {
	Tick uint64  // Absolute time in ticks
	BPM  float64 // Beats per minute
}

// tempoMap converts absolute ticks into seconds for one file
type tempoMap struct {
	events          []TempoEvent
	seconds         []float64 // elapsed seconds at each event
	ticksPerQuarter float64
}

// newTempoMap collects tempo changes from all tracks. Files without any
// tempo event play at 120 BPM.
func newTempoMap(smfData *smf.SMF) (*tempoMap, error) {
	ticksPerQuarter, ok := smfData.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v, expected metric ticks", smfData.TimeFormat)
	}

	if ticksPerQuarter == 0 {
		return nil, fmt.Errorf("invalid time format: zero ticks per quarter note")
	}

	var events []TempoEvent
	for _, track := range smfData.Tracks {
		var currentTick uint64

		for _, event := range track {
			currentTick += uint64(event.Delta)

			var bpm float64
			if event.Message.GetMetaTempo(&bpm) && bpm > 0 {
				events = append(events, TempoEvent{Tick: currentTick, BPM: bpm})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Tick < events[j].Tick
	})

	if len(events) == 0 || events[0].Tick != 0 {
		events = append([]TempoEvent{{Tick: 0, BPM: defaultBPM}}, events...)
	}

	tm := &tempoMap{
		events:          events,
		seconds:         make([]float64, len(events)),
		ticksPerQuarter: float64(ticksPerQuarter),
	}

	for i := 1; i < len(events); i++ {
		tm.seconds[i] = tm.seconds[i-1] + tm.span(events[i].Tick-events[i-1].Tick, events[i-1].BPM)
	}

	return tm, nil
}

func (tm *tempoMap) span(ticks uint64, bpm float64) float64 {
	return float64(ticks) / tm.ticksPerQuarter * 60.0 / bpm
}

// Seconds returns the elapsed time at an absolute tick
func (tm *tempoMap) Seconds(tick uint64) float64 {
	// last tempo event at or before tick
	i := sort.Search(len(tm.events), func(i int) bool {
		return tm.events[i].Tick > tick
	}) - 1

	event := tm.events[i]
	return tm.seconds[i] + tm.span(tick-event.Tick, event.BPM)
}
