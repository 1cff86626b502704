package offsets

import (
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// Searcher drives one discovery pass over a target address space. It
// keeps a scratch buffer of the region being scanned; everything else is
// read on demand through the Reader.
type Searcher struct {
	reader     memory.Reader
	buffer     []byte
	bufferBase uint64

	// EnableSignatureScan turns on the legacy byte-signature fallback.
	// Off by default: three of the seven anchors no longer produce hits
	// on current builds, so signatures are a diagnostic tool only.
	EnableSignatureScan bool
}

func NewSearcher(r memory.Reader) *Searcher {
	return &Searcher{reader: r}
}

// loadBufferAround fills the scratch buffer with up to 2*distance bytes
// centered on the given address, clamped to the module base.
func (s *Searcher) loadBufferAround(center uint64, distance int) error {
	base := s.reader.BaseAddress()
	start := center
	if uint64(distance) < center {
		start = center - uint64(distance)
	}
	if start < base {
		start = base
	}
	buf, err := s.reader.ReadBytes(start, distance*2)
	if err != nil {
		return err
	}
	s.buffer = buf
	s.bufferBase = start
	return nil
}

// findAllMatches returns the absolute addresses of every match of
// pattern in the current scratch buffer.
func (s *Searcher) findAllMatches(pattern *memory.Pattern) []uint64 {
	offsets := pattern.ScanAll(s.buffer)
	addrs := make([]uint64, 0, len(offsets))
	for _, off := range offsets {
		addrs = append(addrs, s.bufferBase+uint64(off))
	}
	return addrs
}

// Discover runs the full anchored discovery pass and returns a complete,
// validated collection.
//
// Order is fixed: the song list seeds everything, each later anchor is
// found at a validated displacement from an earlier one, and the two
// pattern-anchored structures close the pass.
func (s *Searcher) Discover() (*Collection, error) {
	c := &Collection{}
	var err error

	log.Debug().Msg("discovery: searching SongList via seed pattern")
	seedHint := s.reader.BaseAddress() + expectedSongListOffset
	c.SongList, err = s.searchSongList(seedHint)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("addr", c.SongList).Msg("discovery: SongList")

	log.Debug().Msg("discovery: searching JudgeData relative to SongList")
	c.JudgeData, err = s.searchJudgeData(c.SongList)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("addr", c.JudgeData).Msg("discovery: JudgeData")

	log.Debug().Msg("discovery: searching PlaySettings relative to JudgeData")
	c.PlaySettings, err = s.searchPlaySettings(c.JudgeData)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("addr", c.PlaySettings).Msg("discovery: PlaySettings")

	log.Debug().Msg("discovery: searching PlayData relative to PlaySettings")
	c.PlayData, err = s.searchPlayData(c.PlaySettings)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("addr", c.PlayData).Msg("discovery: PlayData")

	log.Debug().Msg("discovery: searching CurrentSong relative to JudgeData")
	c.CurrentSong, err = s.searchCurrentSong(c.JudgeData)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("addr", c.CurrentSong).Msg("discovery: CurrentSong")

	log.Debug().Msg("discovery: searching DataMap via sentinel pattern")
	c.DataMap, err = s.searchDataMap(s.reader.BaseAddress())
	if err != nil {
		// The score table usually sits near the song list; retry there.
		c.DataMap, err = s.searchDataMap(c.SongList)
		if err != nil {
			return nil, err
		}
	}
	log.Info().Uint64("addr", c.DataMap).Msg("discovery: DataMap")

	log.Debug().Msg("discovery: searching UnlockData via tuple pattern")
	c.UnlockData, err = s.searchUnlockData(c.SongList)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("addr", c.UnlockData).Msg("discovery: UnlockData")

	if !c.IsComplete() {
		return nil, discoveryFailed("collection", 0, "one or more anchors unresolved")
	}
	return c, nil
}
