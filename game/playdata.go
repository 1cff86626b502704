package game

import "InfTrack/memory"

// PlayData layout. Populated by the game when a chart finishes.
const (
	PlayDataSize = 0x40

	playSongIDOffset     = 0x00
	playDifficultyOffset = 0x04
	playExScoreOffset    = 0x08
	playMissCountOffset  = 0x0C
	playLampOffset       = 0x18
	playDJLevelOffset    = 0x1C
	playStyleOffset      = 0x20
)

// PlayData is the result block for the most recent completed chart.
type PlayData struct {
	SongID     uint32
	Difficulty Difficulty
	ExScore    uint32
	// MissCount is -1 when the game did not record one (assist options,
	// premature end).
	MissCount int32
	ClearLamp Lamp
	DJLevel   DJLevel
	PlayStyle PlayType
}

// IsZero reports the idle state: nothing has been played yet.
func (p *PlayData) IsZero() bool {
	return p.SongID == 0 && p.Difficulty == 0 && p.ExScore == 0 &&
		p.MissCount == 0 && p.ClearLamp == 0 && p.DJLevel == 0 && p.PlayStyle == 0
}

// DecodePlayData decodes and validates a play-data block. The idle
// all-zero block is a valid decode; out-of-range fields are not.
func DecodePlayData(buf *memory.Buffer) (*PlayData, error) {
	if buf.Len() < PlayDataSize {
		return nil, invalidStructure("play data too short", buf.Bytes())
	}
	songID, _ := buf.I32At(playSongIDOffset)
	difficulty, _ := buf.I32At(playDifficultyOffset)
	exScore, _ := buf.I32At(playExScoreOffset)
	missCount, _ := buf.I32At(playMissCountOffset)
	lamp, _ := buf.I32At(playLampOffset)
	djLevel, _ := buf.I32At(playDJLevelOffset)
	style, _ := buf.I32At(playStyleOffset)

	if songID != 0 && !ValidSongID(songID) {
		return nil, invalidStructure("song_id out of range", buf.Bytes())
	}
	if difficulty < 0 || difficulty > int32(DPL) {
		return nil, invalidStructure("difficulty out of range", buf.Bytes())
	}
	if exScore < 0 || exScore > 10000 {
		return nil, invalidStructure("ex_score out of range", buf.Bytes())
	}
	if missCount < -1 || missCount > MaxJudgeValue {
		return nil, invalidStructure("miss_count out of range", buf.Bytes())
	}
	if lamp < 0 || lamp > int32(LampPerfect) {
		return nil, invalidStructure("clear_lamp out of range", buf.Bytes())
	}
	if djLevel < 0 || djLevel > int32(DJLevelAAA) {
		return nil, invalidStructure("dj_level out of range", buf.Bytes())
	}
	if style < 0 || style > int32(PlayDP) {
		return nil, invalidStructure("play_style out of range", buf.Bytes())
	}

	return &PlayData{
		SongID:     uint32(songID),
		Difficulty: Difficulty(difficulty),
		ExScore:    uint32(exScore),
		MissCount:  missCount,
		ClearLamp:  Lamp(lamp),
		DJLevel:    DJLevel(djLevel),
		PlayStyle:  PlayType(style),
	}, nil
}

// ReadPlayData reads and decodes the play-data block at address.
func ReadPlayData(r memory.Reader, address uint64) (*PlayData, error) {
	raw, err := r.ReadBytes(address, PlayDataSize)
	if err != nil {
		return nil, err
	}
	return DecodePlayData(memory.NewBuffer(raw))
}
