package game

import "InfTrack/memory"

// CurrentSong layout. Written when a chart is highlighted on the select
// or result screen.
const (
	CurrentSongSize = 0x0C

	currentSongIDOffset    = 0x00
	currentDifficultyOff   = 0x04
	currentPlayStyleOffset = 0x08
)

// CurrentSong is the chart currently selected in the menus.
type CurrentSong struct {
	SongID     uint32
	Difficulty Difficulty
	PlayStyle  PlayType
}

// IsZero reports the no-selection state.
func (c *CurrentSong) IsZero() bool {
	return c.SongID == 0 && c.Difficulty == 0 && c.PlayStyle == 0
}

// DecodeCurrentSong decodes and validates a current-song block. SongID
// zero means no selection and is a valid decode.
func DecodeCurrentSong(buf *memory.Buffer) (*CurrentSong, error) {
	if buf.Len() < CurrentSongSize {
		return nil, invalidStructure("current song too short", buf.Bytes())
	}
	songID, _ := buf.I32At(currentSongIDOffset)
	difficulty, _ := buf.I32At(currentDifficultyOff)
	style, _ := buf.I32At(currentPlayStyleOffset)

	if songID != 0 && !ValidSongID(songID) {
		return nil, invalidStructure("song_id out of range", buf.Bytes())
	}
	if difficulty < 0 || difficulty > int32(DPL) {
		return nil, invalidStructure("difficulty out of range", buf.Bytes())
	}
	if style < 0 || style > int32(PlayDP) {
		return nil, invalidStructure("play_style out of range", buf.Bytes())
	}

	return &CurrentSong{
		SongID:     uint32(songID),
		Difficulty: Difficulty(difficulty),
		PlayStyle:  PlayType(style),
	}, nil
}

// ReadCurrentSong reads and decodes the current-song block at address.
func ReadCurrentSong(r memory.Reader, address uint64) (*CurrentSong, error) {
	raw, err := r.ReadBytes(address, CurrentSongSize)
	if err != nil {
		return nil, err
	}
	return DecodeCurrentSong(memory.NewBuffer(raw))
}
