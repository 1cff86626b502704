package offsets

import (
	"encoding/binary"

	"InfTrack/game"
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// i32Pattern builds an exact-match pattern from consecutive
// little-endian 32-bit values.
func i32Pattern(values ...int32) *memory.Pattern {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return memory.LiteralPattern(buf)
}

// dataMapProbe scores one DataMap candidate.
type dataMapProbe struct {
	addr           uint64
	tableSize      int
	nonNullEntries int
	validNodes     int
}

func (p *dataMapProbe) betterThan(other *dataMapProbe) bool {
	if p.validNodes != other.validNodes {
		return p.validNodes > other.validNodes
	}
	if p.nonNullEntries != other.nonNullEntries {
		return p.nonNullEntries > other.nonNullEntries
	}
	return p.tableSize < other.tableSize
}

// searchDataMap locates the score hash table by its head sentinel pair.
// Every match is probed: the table bounds must be sane, and probes are
// ranked by how many sampled nodes decode as score records, then by how
// many slots are non-null. The best-scoring probe wins; an unprobeable
// first match is kept as a last-resort fallback.
func (s *Searcher) searchDataMap(hint uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorDataMap)
	anchor.begin()

	pattern := i32Pattern(game.DataMapSentinelLo, game.DataMapSentinelHi)
	var best *dataMapProbe
	var fallback uint64

	for searchSize := initialSearchSize; searchSize <= maxSearchSize; searchSize *= 2 {
		if err := s.loadBufferAround(hint, searchSize); err != nil {
			break
		}
		for _, addr := range s.findAllMatches(pattern) {
			anchor.propose(addr)
			if fallback == 0 {
				fallback = addr
			}
			probe := s.probeDataMap(addr)
			if probe == nil {
				anchor.reject()
				continue
			}
			if best == nil || probe.betterThan(best) {
				best = probe
			}
		}
		if best != nil {
			break
		}
	}

	if best != nil {
		log.Debug().
			Uint64("addr", best.addr).
			Int("validNodes", best.validNodes).
			Int("entries", best.nonNullEntries).
			Msg("data map candidate selected")
		return anchor.promote(best.addr), nil
	}
	if fallback != 0 {
		log.Warn().Uint64("addr", fallback).Msg("data map validation failed; using first sentinel match")
		return anchor.promote(fallback), nil
	}
	return 0, anchor.exhaust("sentinel pair not found")
}

func (s *Searcher) probeDataMap(addr uint64) *dataMapProbe {
	if !validateDataMapHead(s.reader, addr) {
		return nil
	}
	nullObj, err := memory.ReadU64(s.reader, addr-16)
	if err != nil {
		return nil
	}
	tableStart, _ := memory.ReadU64(s.reader, addr+0x08)
	tableEnd, _ := memory.ReadU64(s.reader, addr+0x10)
	tableSize := int(tableEnd - tableStart)

	scanSize := tableSize
	if scanSize > dataMapScanBytes {
		scanSize = dataMapScanBytes
	}
	raw, err := s.reader.ReadBytes(tableStart, scanSize)
	if err != nil {
		return nil
	}
	buf := memory.NewBuffer(raw)

	probe := &dataMapProbe{addr: addr, tableSize: tableSize}
	var entryPoints []uint64
	for i := 0; i < scanSize/8; i++ {
		entry, _ := buf.U64At(i * 8)
		if entry != 0 && entry != nullObj && entry != game.DataMapNodeSentinel {
			probe.nonNullEntries++
			entryPoints = append(entryPoints, entry)
		}
	}
	for i, entry := range entryPoints {
		if i >= dataMapNodeSamples {
			break
		}
		if game.ValidateScoreNode(s.reader, entry) {
			probe.validNodes++
		}
	}
	return probe
}

// searchUnlockData locates the unlock table by its known first record
// (song 1000, type 1, bits 462). The last match wins: the tuple also
// shows up in earlier copies of the data that are not the live table.
func (s *Searcher) searchUnlockData(hint uint64) (uint64, error) {
	anchor := newAnchorSearch(AnchorUnlockData)
	anchor.begin()

	pattern := i32Pattern(game.UnlockFirstSongID, game.UnlockFirstType, game.UnlockFirstBits)

	for searchSize := initialSearchSize; searchSize <= maxSearchSize; searchSize *= 2 {
		if err := s.loadBufferAround(hint, searchSize); err != nil {
			break
		}
		matches := s.findAllMatches(pattern)
		for i := len(matches) - 1; i >= 0; i-- {
			anchor.propose(matches[i])
			if validateUnlockCandidate(s.reader, matches[i]) {
				return anchor.promote(matches[i]), nil
			}
			anchor.reject()
		}
	}
	return 0, anchor.exhaust("tuple pattern not found")
}
