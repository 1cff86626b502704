package offsets

import (
	"InfTrack/game"
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// validateJudgeCandidate checks a candidate JudgeData address: the
// counter region must be in its idle all-zero state, both state markers
// must hold plausible values, and the CurrentSong implied by the fixed
// displacement must decode. The implied-structure check is what rejects
// zero runs in unrelated memory, which are otherwise indistinguishable.
func validateJudgeCandidate(r memory.Reader, addr uint64) bool {
	if addr%4 != 0 {
		return false
	}
	m1, m2, err := game.ReadJudgeMarkers(r, addr)
	if err != nil {
		return false
	}
	if m1 < 0 || m1 > 100 || m2 < 0 || m2 > 100 {
		return false
	}

	zeroRegion, err := r.ReadBytes(addr, game.JudgeZeroRegionSize)
	if err != nil {
		return false
	}
	for _, b := range zeroRegion {
		if b != 0 {
			return false
		}
	}

	return impliedCurrentSongDecodes(r, addr)
}

// impliedCurrentSongDecodes applies the cross-validation rule: the
// structure at JudgeData + judgeToCurrentSong must decode cleanly, with
// song_id either zero (nothing selected) or inside the trusted range.
func impliedCurrentSongDecodes(r memory.Reader, judgeAddr uint64) bool {
	cs, err := game.ReadCurrentSong(r, judgeAddr+judgeToCurrentSong)
	return err == nil && cs != nil
}

// validatePlaySettingsCandidate checks a candidate PlaySettings address:
// every setting byte within its enum range, the song-select marker in
// its known value set, and the implied PlayData decoding cleanly.
func validatePlaySettingsCandidate(r memory.Reader, addr uint64) bool {
	raw, err := r.ReadBytes(addr, game.PlaySettingsSize)
	if err != nil {
		return false
	}
	if _, err := game.DecodePlaySettings(memory.NewBuffer(raw)); err != nil {
		return false
	}
	marker, err := game.ReadSongSelectMarker(r, addr)
	if err != nil || (marker != game.MarkerSelect && marker != game.MarkerPlay) {
		return false
	}
	return lenientPlayDataOK(r, addr+playSettingsToPlayData)
}

// strictPlayDataOK requires real play data: a song_id inside the trusted
// range. The all-zero idle record is rejected here because zero memory
// at a wrong address looks exactly the same.
func strictPlayDataOK(r memory.Reader, addr uint64) bool {
	p, err := game.ReadPlayData(r, addr)
	if err != nil {
		return false
	}
	return game.ValidSongID(int32(p.SongID))
}

// lenientPlayDataOK accepts any clean decode, including the idle record.
func lenientPlayDataOK(r memory.Reader, addr uint64) bool {
	_, err := game.ReadPlayData(r, addr)
	return err == nil
}

// strictCurrentSongOK requires a selected song. Power-of-two IDs are
// rejected: they recur in pointer-dense regions and are the observed
// false-positive pattern.
func strictCurrentSongOK(r memory.Reader, addr uint64) bool {
	cs, err := game.ReadCurrentSong(r, addr)
	if err != nil {
		return false
	}
	if !game.ValidSongID(int32(cs.SongID)) {
		return false
	}
	return !isPowerOfTwo(cs.SongID)
}

// lenientCurrentSongOK accepts any clean decode, including no-selection,
// but still refuses power-of-two IDs.
func lenientCurrentSongOK(r memory.Reader, addr uint64) bool {
	cs, err := game.ReadCurrentSong(r, addr)
	if err != nil {
		return false
	}
	if cs.SongID != 0 && isPowerOfTwo(cs.SongID) {
		return false
	}
	return true
}

// validateDataMapHead checks the sentinel pair and table bounds at a
// candidate DataMap head.
func validateDataMapHead(r memory.Reader, addr uint64) bool {
	lo, err := memory.ReadU32(r, addr)
	if err != nil || lo != game.DataMapSentinelLo {
		return false
	}
	hi, err := memory.ReadU32(r, addr+4)
	if err != nil || hi != game.DataMapSentinelHi {
		return false
	}
	tableStart, err := memory.ReadU64(r, addr+0x08)
	if err != nil {
		return false
	}
	tableEnd, err := memory.ReadU64(r, addr+0x10)
	if err != nil {
		return false
	}
	if tableEnd <= tableStart {
		return false
	}
	size := tableEnd - tableStart
	return size >= dataMapMinTableBytes && size <= dataMapMaxTableBytes && size%8 == 0
}

// validateUnlockCandidate checks the first record of a candidate unlock
// table.
func validateUnlockCandidate(r memory.Reader, addr uint64) bool {
	raw, err := r.ReadBytes(addr, game.UnlockEntrySize)
	if err != nil {
		return false
	}
	_, err = game.DecodeUnlockEntry(memory.NewBuffer(raw))
	return err == nil
}

// Validate re-checks a complete collection against the live process:
// every address readable, every structure passing its validator, and
// every displacement inside its window. Used as the final gate after
// discovery.
func Validate(r memory.Reader, c *Collection) bool {
	if !c.IsComplete() {
		log.Debug().Msg("offsets validation failed: collection incomplete")
		return false
	}

	if n := game.CountSongsAt(r, c.SongList, minValidSongRun); n < minValidSongRun {
		log.Debug().Int("songs", n).Msg("offsets validation failed: song list run too short")
		return false
	}
	if !validateJudgeCandidate(r, c.JudgeData) {
		log.Debug().Uint64("addr", c.JudgeData).Msg("offsets validation failed: judge data")
		return false
	}
	if !validatePlaySettingsCandidate(r, c.PlaySettings) {
		log.Debug().Uint64("addr", c.PlaySettings).Msg("offsets validation failed: play settings")
		return false
	}
	if !lenientPlayDataOK(r, c.PlayData) {
		log.Debug().Uint64("addr", c.PlayData).Msg("offsets validation failed: play data")
		return false
	}
	if !lenientCurrentSongOK(r, c.CurrentSong) {
		log.Debug().Uint64("addr", c.CurrentSong).Msg("offsets validation failed: current song")
		return false
	}
	if !validateDataMapHead(r, c.DataMap) {
		log.Debug().Uint64("addr", c.DataMap).Msg("offsets validation failed: data map")
		return false
	}
	if !validateUnlockCandidate(r, c.UnlockData) {
		log.Debug().Uint64("addr", c.UnlockData).Msg("offsets validation failed: unlock data")
		return false
	}

	within := func(actual, expected uint64, window uint64) bool {
		if actual >= expected {
			return actual-expected <= window
		}
		return expected-actual <= window
	}
	if !within(c.SongList-c.JudgeData, judgeToSongList, judgeDataSearchRange) {
		return false
	}
	if !within(c.JudgeData-c.PlaySettings, judgeToPlaySettings, playSettingsSearchRange) {
		return false
	}
	if !within(c.PlayData-c.PlaySettings, playSettingsToPlayData, playDataSearchRange) {
		return false
	}
	if !within(c.CurrentSong-c.JudgeData, judgeToCurrentSong, currentSongSearchRange) {
		return false
	}
	return true
}
