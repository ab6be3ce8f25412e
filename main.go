// Command noteblock converts MIDI files into Minecraft Bedrock behavior packs
// that play the song with note block sounds.
//
// Basic usage:
//
//	noteblock -i song.mid -n song
//
// writes output/song.mcpack containing Template/functions/NBO_song/1.mcfunction
// and onward. Each function holds up to 10000 playsound commands keyed on the
// "music" scoreboard objective, which the world is expected to increment once
// per tick.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
