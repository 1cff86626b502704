package offsets

import (
	"InfTrack/game"
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// searchSongList locates the song list by scanning for the "5.1.1."
// version marker embedded near it. Every match is treated as a
// candidate; the one whose decoded entry run is longest wins, and a run
// must exceed minValidSongRun to be trusted at all.
//
// The marker can sit a whole entry before or after the real table head,
// so each match is probed at a few entry-aligned displacements.
func (s *Searcher) searchSongList(hint uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorSongList)
	anchor.begin()

	pattern := memory.LiteralPattern(seedPattern)
	probeOffsets := []int64{
		0,
		game.SongEntrySize,
		2 * game.SongEntrySize,
		-game.SongEntrySize,
	}

	var bestAddr uint64
	bestCount := 0

	for searchSize := initialSearchSize; searchSize <= maxSearchSize; searchSize *= 2 {
		if err := s.loadBufferAround(hint, searchSize); err != nil {
			break
		}
		matches := s.findAllMatches(pattern)
		log.Debug().
			Int("matches", len(matches)).
			Int("windowMB", searchSize/1024/1024).
			Msg("song list seed scan")

		for _, addr := range matches {
			if addr%4 != 0 {
				continue
			}
			for _, probe := range probeOffsets {
				candidate := addr
				if probe < 0 {
					if uint64(-probe) > candidate {
						continue
					}
					candidate -= uint64(-probe)
				} else {
					candidate += uint64(probe)
				}
				if candidate%4 != 0 {
					continue
				}
				anchor.propose(candidate)
				count := game.CountSongsAt(s.reader, candidate, songCountEnough)
				if count <= minValidSongRun {
					anchor.reject()
					continue
				}
				if count > bestCount {
					bestAddr = candidate
					bestCount = count
				}
			}
		}

		if bestCount > 0 {
			break
		}
	}

	if bestCount == 0 {
		return 0, anchor.exhaust("no candidate produced a valid song run")
	}
	log.Debug().Uint64("addr", bestAddr).Int("songs", bestCount).Msg("song list candidate selected")
	return anchor.promote(bestAddr), nil
}
