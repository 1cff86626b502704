package offsets

// searchNearExpected walks outward from an expected address in 4-byte
// steps, closest candidates first, until the validator accepts one or
// the window is exhausted.
func searchNearExpected(expected uint64, window uint64, validate func(uint64) bool) (uint64, int) {
	tried := 0
	check := func(addr uint64) bool {
		if addr%4 != 0 {
			return false
		}
		tried++
		return validate(addr)
	}

	if check(expected) {
		return expected, tried
	}
	for delta := uint64(4); delta <= window; delta += 4 {
		if expected >= delta && check(expected-delta) {
			return expected - delta, tried
		}
		if check(expected + delta) {
			return expected + delta, tried
		}
	}
	return 0, tried
}

// searchJudgeData finds JudgeData below the song list. Each candidate
// must show the idle 72-zero counter region, plausible state markers,
// and a cleanly decoding implied CurrentSong; the cross-validation is
// what separates the real structure from stray zero runs.
func (s *Searcher) searchJudgeData(songList uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorJudgeData)
	anchor.begin()

	expected := songList - judgeToSongList
	addr, tried := searchNearExpected(expected, judgeDataSearchRange, func(a uint64) bool {
		return validateJudgeCandidate(s.reader, a)
	})
	anchor.tried = tried
	if addr == 0 {
		return 0, anchor.exhaust("no valid candidate near SongList")
	}
	return anchor.promote(addr), nil
}

// searchPlaySettings finds the settings block below JudgeData. Each
// candidate needs every setting within its enum range, a known
// song-select marker value, and an implied PlayData that decodes.
func (s *Searcher) searchPlaySettings(judgeData uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorPlaySettings)
	anchor.begin()

	expected := judgeData - judgeToPlaySettings
	addr, tried := searchNearExpected(expected, playSettingsSearchRange, func(a uint64) bool {
		return validatePlaySettingsCandidate(s.reader, a)
	})
	anchor.tried = tried
	if addr == 0 {
		return 0, anchor.exhaust("no valid candidate near JudgeData")
	}
	return anchor.promote(addr), nil
}

// searchPlayData finds the result block above PlaySettings. The strict
// validator wants real play data; on a machine that has not completed a
// play yet the whole window is zero, so the exact displacement is
// accepted as a fallback when the idle record decodes there. The parent
// anchors' cross-validation carries the confidence in that case.
func (s *Searcher) searchPlayData(playSettings uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorPlayData)
	anchor.begin()

	expected := playSettings + playSettingsToPlayData
	addr, tried := searchNearExpected(expected, playDataSearchRange, func(a uint64) bool {
		return strictPlayDataOK(s.reader, a)
	})
	anchor.tried = tried
	if addr != 0 {
		return anchor.promote(addr), nil
	}
	if lenientPlayDataOK(s.reader, expected) {
		return anchor.promote(expected), nil
	}
	return 0, anchor.exhaust("no valid candidate near PlaySettings")
}

// searchCurrentSong finds the selected-chart block above JudgeData.
// Strict validation wants a real selection and refuses power-of-two
// song IDs; the idle fallback mirrors searchPlayData.
func (s *Searcher) searchCurrentSong(judgeData uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorCurrentSong)
	anchor.begin()

	expected := judgeData + judgeToCurrentSong
	addr, tried := searchNearExpected(expected, currentSongSearchRange, func(a uint64) bool {
		return strictCurrentSongOK(s.reader, a)
	})
	anchor.tried = tried
	if addr != 0 {
		return anchor.promote(addr), nil
	}
	if lenientCurrentSongOK(s.reader, expected) {
		return anchor.promote(expected), nil
	}
	return 0, anchor.exhaust("no valid candidate near JudgeData")
}
