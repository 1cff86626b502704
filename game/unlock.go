package game

import "InfTrack/memory"

// Unlock table layout: one fixed-size record per song, in song-list order.
const (
	UnlockEntrySize = 12

	unlockSongIDOffset = 0
	unlockTypeOffset   = 4
	unlockBitsOffset   = 8

	// The first record on current builds, used as the discovery tuple.
	UnlockFirstSongID = 1000
	UnlockFirstType   = 1
	UnlockFirstBits   = 462
)

// UnlockEntry is one song's unlock record.
type UnlockEntry struct {
	SongID uint32
	// Type 0-3; how the song is unlocked.
	Type uint32
	// Bits is a per-chart unlock bitfield.
	Bits uint32
}

// DecodeUnlockEntry decodes and validates one unlock record.
func DecodeUnlockEntry(buf *memory.Buffer) (*UnlockEntry, error) {
	if buf.Len() < UnlockEntrySize {
		return nil, invalidStructure("unlock entry too short", buf.Bytes())
	}
	songID, _ := buf.I32At(unlockSongIDOffset)
	unlockType, _ := buf.I32At(unlockTypeOffset)
	bits, _ := buf.U32At(unlockBitsOffset)

	if !ValidSongID(songID) {
		return nil, invalidStructure("song_id out of range", buf.Bytes())
	}
	if unlockType < 0 || unlockType > 3 {
		return nil, invalidStructure("unlock type out of range", buf.Bytes())
	}
	return &UnlockEntry{SongID: uint32(songID), Type: uint32(unlockType), Bits: bits}, nil
}

// FetchUnlockState reads unlock records for every song in the list and
// returns them keyed by song ID. Records that fail validation end the
// walk; the table is contiguous.
func FetchUnlockState(r memory.Reader, unlockAddr uint64, count int) (map[uint32]UnlockEntry, error) {
	state := make(map[uint32]UnlockEntry, count)
	for i := 0; i < count; i++ {
		raw, err := r.ReadBytes(unlockAddr+uint64(i)*UnlockEntrySize, UnlockEntrySize)
		if err != nil {
			return nil, err
		}
		entry, err := DecodeUnlockEntry(memory.NewBuffer(raw))
		if err != nil {
			break
		}
		state[entry.SongID] = *entry
	}
	return state, nil
}
