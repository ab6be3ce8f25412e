package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Note is a single decoded note. Times are in seconds from the start of the
// performance.
type Note struct {
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Velocity float64 `json:"velocity"` // 0..1
	Pitch    int     `json:"midi"`
}

// Track is one MIDI track with its notes in note-on order
type Track struct {
	Name    string `json:"name,omitempty"`
	Channel int    `json:"channel"`
	Program int    `json:"program"` // first program change, 0 when absent
	Notes   []Note `json:"notes"`
}

// Performance is a fully decoded MIDI file
type Performance struct {
	Tracks   []Track `json:"tracks"`
	Duration float64 `json:"duration"` // end of the last sounding note
}

// LoadPerformance decodes a MIDI file from disk. Song packages (.sng) are
// opened and their notes.mid is decoded instead.
func LoadPerformance(filename string) (*Performance, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".sng" {
		midiData, err := readSngMidi(filename)
		if err != nil {
			return nil, err
		}
		return DecodePerformance(bytes.NewReader(midiData))
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	return DecodePerformance(file)
}

// DecodePerformance reads a standard MIDI file and converts every track into
// timed notes.
func DecodePerformance(r io.Reader) (*Performance, error) {
	smfData, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("error reading MIDI data: %w", err)
	}

	tempo, err := newTempoMap(smfData)
	if err != nil {
		return nil, err
	}

	perf := &Performance{
		Tracks: make([]Track, 0, len(smfData.Tracks)),
	}

	for i, midiTrack := range smfData.Tracks {
		track, end := decodeTrack(midiTrack, tempo)

		// the conductor track of a format 1 file is not a part
		if i == 0 && smfData.Format() == 1 && end == 0 {
			continue
		}

		if end > perf.Duration {
			perf.Duration = end
		}
		perf.Tracks = append(perf.Tracks, track)
	}

	return perf, nil
}

type noteKey struct {
	channel, key uint8
}

// decodeTrack pairs note-ons with note-offs and returns the track along with
// the end time of its last sounding note.
func decodeTrack(midiTrack smf.Track, tempo *tempoMap) (Track, float64) {
	track := Track{
		Name:    getTrackName(midiTrack),
		Channel: -1,
		Notes:   []Note{},
	}

	hasProgram := false
	open := make(map[noteKey][]int) // indexes into track.Notes, oldest first
	var currentTick uint64
	var end float64

	closeNote := func(k noteKey, tick uint64) {
		pending := open[k]
		if len(pending) == 0 {
			return
		}
		idx := pending[0]
		open[k] = pending[1:]

		note := &track.Notes[idx]
		note.Duration = tempo.Seconds(tick) - note.Time
		if stop := note.Time + note.Duration; stop > end {
			end = stop
		}
	}

	for _, event := range midiTrack {
		currentTick += uint64(event.Delta)
		msg := event.Message

		var ch, key, vel, program uint8

		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			k := noteKey{ch, key}
			if vel == 0 {
				// note on with velocity 0 is a note off
				closeNote(k, currentTick)
				break
			}

			track.Notes = append(track.Notes, Note{
				Time:     tempo.Seconds(currentTick),
				Velocity: float64(vel) / 127,
				Pitch:    int(key),
			})
			open[k] = append(open[k], len(track.Notes)-1)
		case msg.GetNoteOff(&ch, &key, &vel):
			closeNote(noteKey{ch, key}, currentTick)
		case msg.GetProgramChange(&ch, &program):
			if !hasProgram {
				track.Program = int(program)
				hasProgram = true
			}
		default:
			continue
		}

		if track.Channel < 0 {
			track.Channel = int(ch)
		}
	}

	// notes still sounding at the end of the track stop there
	for k := range open {
		for len(open[k]) > 0 {
			closeNote(k, currentTick)
		}
	}

	return track, end
}

func getTrackName(track smf.Track) string {
	for _, event := range track {
		msg := event.Message

		var trackName string
		if msg.GetMetaTrackName(&trackName) {
			return trackName
		}

		var text string
		if msg.GetMetaText(&text) {
			return text
		}
	}
	return ""
}

// NoteCount returns the number of notes across all tracks
func (p *Performance) NoteCount() int {
	count := 0
	for _, track := range p.Tracks {
		count += len(track.Notes)
	}
	return count
}
