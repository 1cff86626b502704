package offsets

import (
	"sort"

	"InfTrack/game"
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// CandidateInfo is one ranked option presented when automatic discovery
// cannot settle an anchor.
type CandidateInfo struct {
	Address uint64
	// Score ranks candidates within an anchor; the meaning is
	// anchor-specific (song run length for the song list, closeness to
	// the expected displacement for the relative anchors).
	Score int
}

// Chooser selects among ranked candidates for the named anchor. It
// returns the index of the chosen candidate, or a negative value to
// abort. The presentation lives outside this package.
type Chooser func(anchor string, candidates []CandidateInfo) int

// maxPresentedCandidates caps the ranked list handed to the chooser.
const maxPresentedCandidates = 10

// DiscoverInteractive runs the anchored pass, falling back to chooser
// resolution when the automatic search cannot settle the song list or
// one of the relative anchors (JudgeData, PlaySettings, PlayData,
// CurrentSong). The chosen address is recorded as if discovery had
// succeeded; downstream anchors then derive from it normally. DataMap
// and UnlockData have no chooser fallback: a failed search for either
// ends the pass with its error.
func (s *Searcher) DiscoverInteractive(choose Chooser) (*Collection, error) {
	c := &Collection{}
	var err error

	seedHint := s.reader.BaseAddress() + expectedSongListOffset
	c.SongList, err = s.searchSongList(seedHint)
	if err != nil {
		c.SongList, err = s.chooseSongList(seedHint, choose)
		if err != nil {
			return nil, err
		}
	}

	c.JudgeData, err = s.searchJudgeData(c.SongList)
	if err != nil {
		c.JudgeData, err = s.chooseNearExpected(AnchorJudgeData,
			c.SongList-judgeToSongList, judgeDataSearchRange, choose,
			func(a uint64) bool { return validateJudgeCandidate(s.reader, a) })
		if err != nil {
			return nil, err
		}
	}

	c.PlaySettings, err = s.searchPlaySettings(c.JudgeData)
	if err != nil {
		c.PlaySettings, err = s.chooseNearExpected(AnchorPlaySettings,
			c.JudgeData-judgeToPlaySettings, playSettingsSearchRange, choose,
			func(a uint64) bool { return validatePlaySettingsCandidate(s.reader, a) })
		if err != nil {
			return nil, err
		}
	}

	c.PlayData, err = s.searchPlayData(c.PlaySettings)
	if err != nil {
		c.PlayData, err = s.chooseNearExpected(AnchorPlayData,
			c.PlaySettings+playSettingsToPlayData, playDataSearchRange, choose,
			func(a uint64) bool { return lenientPlayDataOK(s.reader, a) })
		if err != nil {
			return nil, err
		}
	}

	c.CurrentSong, err = s.searchCurrentSong(c.JudgeData)
	if err != nil {
		c.CurrentSong, err = s.chooseNearExpected(AnchorCurrentSong,
			c.JudgeData+judgeToCurrentSong, currentSongSearchRange, choose,
			func(a uint64) bool { return lenientCurrentSongOK(s.reader, a) })
		if err != nil {
			return nil, err
		}
	}

	c.DataMap, err = s.searchDataMap(s.reader.BaseAddress())
	if err != nil {
		c.DataMap, err = s.searchDataMap(c.SongList)
		if err != nil {
			return nil, err
		}
	}

	c.UnlockData, err = s.searchUnlockData(c.SongList)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// chooseSongList gathers every seed-pattern match, ranks by decoded song
// run, and hands the top candidates to the chooser.
func (s *Searcher) chooseSongList(hint uint64, choose Chooser) (uint64, error) {
	var candidates []CandidateInfo
	pattern := memory.LiteralPattern(seedPattern)

	for searchSize := initialSearchSize; searchSize <= maxSearchSize; searchSize *= 2 {
		if err := s.loadBufferAround(hint, searchSize); err != nil {
			break
		}
		for _, addr := range s.findAllMatches(pattern) {
			if addr%4 != 0 {
				continue
			}
			count := game.CountSongsAt(s.reader, addr, songCountEnough)
			candidates = append(candidates, CandidateInfo{Address: addr, Score: count})
		}
		if len(candidates) > 0 {
			break
		}
	}
	return s.resolveChoice(AnchorSongList, candidates, choose)
}

// chooseNearExpected collects every address in the window that passes
// the (possibly lenient) validator, ranked by distance to the expected
// displacement.
func (s *Searcher) chooseNearExpected(anchor string, expected uint64, window uint64, choose Chooser, validate func(uint64) bool) (uint64, error) {
	var candidates []CandidateInfo
	appendIf := func(addr uint64, score int) {
		if addr%4 == 0 && validate(addr) {
			candidates = append(candidates, CandidateInfo{Address: addr, Score: score})
		}
	}
	appendIf(expected, int(window))
	for delta := uint64(4); delta <= window; delta += 4 {
		if expected >= delta {
			appendIf(expected-delta, int(window-delta))
		}
		appendIf(expected+delta, int(window-delta))
	}
	return s.resolveChoice(anchor, candidates, choose)
}

func (s *Searcher) resolveChoice(anchor string, candidates []CandidateInfo, choose Chooser) (uint64, error) {
	if len(candidates) == 0 {
		return 0, discoveryFailed(anchor, 0, "no candidates to present")
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxPresentedCandidates {
		candidates = candidates[:maxPresentedCandidates]
	}
	idx := choose(anchor, candidates)
	if idx < 0 || idx >= len(candidates) {
		return 0, discoveryFailed(anchor, len(candidates), "chooser aborted")
	}
	chosen := candidates[idx].Address
	log.Info().Str("anchor", anchor).Uint64("addr", chosen).Msg("anchor resolved interactively")
	return chosen, nil
}
