package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Song packages (.sng) bundle a chart's notes.mid with audio and artwork.
// Only the file index is needed here, so metadata is skipped by length.
//
// Layout, little endian:
//
//	"SNGPKG" | version u32 | xor mask [16]
//	metadata length u64 | metadata ...
//	index length u64 | file count u64 | { name len u8 | name | size u64 | offset u64 }...
//	masked file data
const (
	sngIdentifier = "SNGPKG"
	sngMidiFile   = "notes.mid"
)

type sngHeader struct {
	Identifier [6]byte
	Version    uint32
	XorMask    [16]byte
}

type sngEntry struct {
	name   string
	size   uint64
	offset uint64
}

// readSngMidi extracts notes.mid from a song package
func readSngMidi(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening song package: %w", err)
	}
	defer file.Close()

	data, err := readSngEntry(file, sngMidiFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

func readSngEntry(r io.ReadSeeker, name string) ([]byte, error) {
	var header sngHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Identifier[:]) != sngIdentifier {
		return nil, fmt.Errorf("invalid file identifier: %q", string(header.Identifier[:]))
	}

	var metadataLength uint64
	if err := binary.Read(r, binary.LittleEndian, &metadataLength); err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if _, err := r.Seek(int64(metadataLength), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("failed to skip metadata: %w", err)
	}

	entries, err := readSngIndex(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file index: %w", err)
	}

	packageSize, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.name != name {
			continue
		}

		if entry.offset > uint64(packageSize) || entry.size > uint64(packageSize)-entry.offset {
			return nil, fmt.Errorf("invalid entry %s: size %d at offset %d exceeds package", entry.name, entry.size, entry.offset)
		}

		if _, err := r.Seek(int64(entry.offset), io.SeekStart); err != nil {
			return nil, err
		}

		data := make([]byte, entry.size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}

		unmaskSngData(data, header.XorMask)
		return data, nil
	}

	return nil, fmt.Errorf("no %s found in song package", name)
}

func readSngIndex(r io.Reader) ([]sngEntry, error) {
	var indexLength, fileCount uint64
	if err := binary.Read(r, binary.LittleEndian, &indexLength); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return nil, err
	}

	var entries []sngEntry
	for i := uint64(0); i < fileCount; i++ {
		var nameLen uint8
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, err
		}

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, err
		}

		var sizes [2]uint64 // size, offset
		if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
			return nil, err
		}

		entries = append(entries, sngEntry{name: string(name), size: sizes[0], offset: sizes[1]})
	}

	return entries, nil
}

// unmaskSngData reverses the per-file XOR masking in place. The key for each
// byte depends on its position within the file and the header mask.
func unmaskSngData(data []byte, mask [16]byte) {
	for i := range data {
		pos := byte(i & 0xFF)
		data[i] ^= pos ^ mask[pos&0x0F]
	}
}
