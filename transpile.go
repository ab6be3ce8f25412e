package main

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	// TickRate is the number of game ticks per second of performance time
	TickRate = 20
	// TimerObjective is the scoreboard objective that counts elapsed ticks
	TimerObjective = "music"
	// MaxFunctionCommands bounds the number of lines in one function file
	MaxFunctionCommands = 10000
)

// FunctionGroup is the ordered command list of a single function file
type FunctionGroup []string

// RunSummary holds the counters reported once a pack has been built
type RunSummary struct {
	FinalTick     int
	Groups        int
	Repitched     int
	SkippedTracks int
}

func (s RunSummary) String() string {
	return fmt.Sprintf("Duration: %d ticks. %d files. %d notes repitched. %d tracks skipped.",
		s.FinalTick, s.Groups, s.Repitched, s.SkippedTracks)
}

// PlayableTrack is a track paired with the sound that will play it
type PlayableTrack struct {
	Index int // position in the source performance
	Sound string
	Track *Track
}

// Transpilation is the complete output of one pass over a performance
type Transpilation struct {
	Groups  []FunctionGroup
	Summary RunSummary
}

// Commands returns every command in output order
func (t *Transpilation) Commands() []string {
	var commands []string
	for _, group := range t.Groups {
		commands = append(commands, group...)
	}
	return commands
}

// Transpiler turns a performance into playsound commands
type Transpiler struct {
	instruments *InstrumentMap
	logger      *slog.Logger
}

func NewTranspiler(instruments *InstrumentMap, logger *slog.Logger) *Transpiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transpiler{instruments: instruments, logger: logger}
}

// Transpile runs the whole pipeline: track selection, command synthesis and
// chunking into function files.
func (t *Transpiler) Transpile(perf *Performance) *Transpilation {
	playable, skipped := t.FilterTracks(perf.Tracks)

	commands, repitched := t.Synthesize(playable)

	finalTick := secondsToTick(perf.Duration)
	commands = append(commands, resetCommand(finalTick))

	groups := ChunkCommands(commands)

	return &Transpilation{
		Groups: groups,
		Summary: RunSummary{
			FinalTick:     finalTick,
			Groups:        len(groups),
			Repitched:     repitched,
			SkippedTracks: skipped,
		},
	}
}

// FilterTracks keeps the tracks whose program has a sound and reports how
// many were dropped.
func (t *Transpiler) FilterTracks(tracks []Track) ([]PlayableTrack, int) {
	playable := make([]PlayableTrack, 0, len(tracks))

	for i := range tracks {
		track := &tracks[i]

		sound, ok := t.instruments.Lookup(track.Program)
		if !ok {
			t.logger.Debug("skipping track",
				"track", i,
				"name", track.Name,
				"program", track.Program,
				"instrument", gmProgramName(track.Program),
				"notes", len(track.Notes))
			continue
		}

		playable = append(playable, PlayableTrack{Index: i, Sound: sound, Track: track})
	}

	return playable, len(tracks) - len(playable)
}

// Synthesize emits one playsound command per note, track by track, and counts
// the notes whose pitch had to be folded.
func (t *Transpiler) Synthesize(tracks []PlayableTrack) ([]string, int) {
	var commands []string
	repitched := 0

	for _, pt := range tracks {
		outOfRange := 0

		for _, note := range pt.Track.Notes {
			pitch, folded := MapPitch(note.Pitch)
			if folded {
				repitched++
			}
			if pitch < PitchMin || pitch > PitchMax {
				outOfRange++
			}

			commands = append(commands, playsoundCommand(pt.Sound, secondsToTick(note.Time), note.Velocity, pitch))
		}

		if outOfRange > 0 {
			t.logger.Debug("notes outside playable pitch range",
				"track", pt.Index,
				"sound", pt.Sound,
				"count", outOfRange)
		}
	}

	return commands, repitched
}

// secondsToTick rounds a performance time to the nearest game tick
func secondsToTick(seconds float64) int {
	return int(math.Round(seconds * TickRate))
}

func playsoundCommand(sound string, tick int, volume, pitch float64) string {
	v := formatDecimal(volume)
	return fmt.Sprintf("playsound %s @a[scores={%s=%d}] 0 25600 0 %s %s %s",
		sound, TimerObjective, tick, v, formatDecimal(pitch), v)
}

// resetCommand clears the timer of everyone who has reached the end
func resetCommand(finalTick int) string {
	return fmt.Sprintf("scoreboard players reset @a[scores={%s=%d..}] %s", TimerObjective, finalTick, TimerObjective)
}

// ChunkCommands splits commands into function groups of at most
// MaxFunctionCommands lines.
func ChunkCommands(commands []string) []FunctionGroup {
	return chunkBy(commands, MaxFunctionCommands)
}

// chunkBy copies consecutive runs of size commands into new groups. The input
// slice is never modified or aliased.
func chunkBy(commands []string, size int) []FunctionGroup {
	if size <= 0 {
		panic("chunk size must be positive")
	}

	groups := make([]FunctionGroup, 0, (len(commands)+size-1)/size)
	for start := 0; start < len(commands); start += size {
		end := min(start+size, len(commands))

		group := make(FunctionGroup, end-start)
		copy(group, commands[start:end])
		groups = append(groups, group)
	}

	return groups
}
