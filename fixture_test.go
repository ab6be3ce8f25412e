package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Test Helper Functions

const fixtureTicksPerQuarter = 480

type fixtureNote struct {
	tick   uint32 // absolute
	key    uint8
	vel    uint8
	length uint32 // 0 leaves the note open
}

type fixtureTrack struct {
	name    string
	channel uint8
	program int // negative for no program change
	notes   []fixtureNote
	tempos  map[uint32]float64 // absolute tick -> bpm
}

type fixtureEvent struct {
	tick  uint32
	order int // note offs sort before note ons at the same tick
	msg   []byte
}

// buildMidi writes a format 1 MIDI file at 480 ticks per quarter note
func buildMidi(t *testing.T, tracks ...fixtureTrack) []byte {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(fixtureTicksPerQuarter)

	for _, ft := range tracks {
		var events []fixtureEvent

		for tick, bpm := range ft.tempos {
			events = append(events, fixtureEvent{tick: tick, order: 0, msg: smf.MetaTempo(bpm)})
		}
		if ft.program >= 0 {
			events = append(events, fixtureEvent{tick: 0, order: 1, msg: midi.ProgramChange(ft.channel, uint8(ft.program))})
		}
		for _, n := range ft.notes {
			events = append(events, fixtureEvent{tick: n.tick, order: 3, msg: midi.NoteOn(ft.channel, n.key, n.vel)})
			if n.length > 0 {
				events = append(events, fixtureEvent{tick: n.tick + n.length, order: 2, msg: midi.NoteOff(ft.channel, n.key)})
			}
		}

		sort.SliceStable(events, func(i, j int) bool {
			if events[i].tick == events[j].tick {
				return events[i].order < events[j].order
			}
			return events[i].tick < events[j].tick
		})

		var track smf.Track
		if ft.name != "" {
			track.Add(0, smf.MetaTrackSequenceName(ft.name))
		}

		var lastTick uint32
		for _, e := range events {
			track.Add(e.tick-lastTick, e.msg)
			lastTick = e.tick
		}
		track.Close(0)

		require.NoError(t, s.Add(track))
	}

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

// writeMidiFile stores a generated MIDI file in a temp dir and returns its path
func writeMidiFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mid")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// newTestLogger returns a logger that writes to t.Log().
func newTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func conductorTrack(bpm float64) fixtureTrack {
	return fixtureTrack{name: "Tempo", program: -1, tempos: map[uint32]float64{0: bpm}}
}
