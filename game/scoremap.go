package game

import (
	"math"

	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// Score hash-table layout. The head carries a sentinel pair, then the
// bounds of a pointer table whose entries chain 64-byte list nodes.
const (
	DataMapSentinelLo = 0x7FFFF
	DataMapSentinelHi = 0

	dataMapTableStartOffset = 0x08
	dataMapTableEndOffset   = 0x10
	dataMapNullObjOffset    = 16 // subtracted from the head address

	// DataMapNodeSentinel marks table slots that hold no node.
	DataMapNodeSentinel = 0x494FDCE0

	ScoreNodeSize = 64

	nodeNextOffset      = 0x00
	nodeDifficultyOff   = 0x10
	nodeSongIDOffset    = 0x14
	nodePlayTypeOffset  = 0x18
	nodeExScoreOffset   = 0x20
	nodeMissCountOffset = 0x24
	nodeLampOffset      = 0x30

	// MissCountUnavailable marks scores without recorded miss data.
	MissCountUnavailable = math.MaxUint32

	maxNodesPerChain = 10000
)

// ScoreData accumulates one song's best results across the ten chart
// slots, indexed SPB..DPL (play style major) the same way Song.Levels is.
type ScoreData struct {
	SongID  uint32
	ExScore [10]uint32
	// MissCount is nil when the game holds no miss data for the slot.
	MissCount [10]*uint32
	Lamp      [10]Lamp
}

// ScoreMap holds every score loaded from the game's hash table.
type ScoreMap struct {
	scores map[uint32]*ScoreData
}

func (m *ScoreMap) Get(songID uint32) *ScoreData { return m.scores[songID] }

func (m *ScoreMap) Len() int { return len(m.scores) }

// Lookup returns the EX score and lamp for one chart, if present.
func (m *ScoreMap) Lookup(songID uint32, d Difficulty) (uint32, Lamp, bool) {
	data, ok := m.scores[songID]
	if !ok || !d.Valid() {
		return 0, LampNoPlay, false
	}
	return data.ExScore[d], data.Lamp[d], true
}

type scoreNode struct {
	next       uint64
	difficulty int32
	songID     int32
	playType   int32
	exScore    uint32
	missCount  uint32
	lamp       int32
}

func decodeScoreNode(buf *memory.Buffer) scoreNode {
	next, _ := buf.U64At(nodeNextOffset)
	difficulty, _ := buf.I32At(nodeDifficultyOff)
	songID, _ := buf.I32At(nodeSongIDOffset)
	playType, _ := buf.I32At(nodePlayTypeOffset)
	exScore, _ := buf.U32At(nodeExScoreOffset)
	missCount, _ := buf.U32At(nodeMissCountOffset)
	lamp, _ := buf.I32At(nodeLampOffset)
	return scoreNode{next, difficulty, songID, playType, exScore, missCount, lamp}
}

func (n *scoreNode) valid() bool {
	return ValidSongID(n.songID) &&
		n.difficulty >= 0 && n.difficulty <= 4 &&
		n.playType >= 0 && n.playType <= 1 &&
		n.lamp >= 0 && n.lamp <= int32(LampPerfect)
}

// FetchScoreMap walks the score hash table at dataMapAddr into a ScoreMap.
// The table maps (song, difficulty, play style) to the best recorded
// result; slot index = difficulty + playType*5.
func FetchScoreMap(r memory.Reader, dataMapAddr uint64) (*ScoreMap, error) {
	result := &ScoreMap{scores: make(map[uint32]*ScoreData)}

	nullObj, err := memory.ReadU64(r, dataMapAddr-dataMapNullObjOffset)
	if err != nil {
		return nil, err
	}
	tableStart, err := memory.ReadU64(r, dataMapAddr+dataMapTableStartOffset)
	if err != nil {
		return nil, err
	}
	tableEnd, err := memory.ReadU64(r, dataMapAddr+dataMapTableEndOffset)
	if err != nil {
		return nil, err
	}
	if tableEnd <= tableStart {
		return result, nil
	}

	tableSize := int(tableEnd - tableStart)
	table, err := r.ReadBytes(tableStart, tableSize)
	if err != nil {
		return nil, err
	}
	buf := memory.NewBuffer(table)

	entries := 0
	for i := 0; i < tableSize/8; i++ {
		entry, _ := buf.U64At(i * 8)
		if entry == 0 || entry == nullObj || entry == DataMapNodeSentinel {
			continue
		}
		entries++
		followScoreChain(r, entry, nullObj, result)
	}

	log.Info().Int("entries", entries).Int("songs", result.Len()).Msg("score map loaded")
	return result, nil
}

func followScoreChain(r memory.Reader, nodeAddr, nullObj uint64, into *ScoreMap) {
	for steps := 0; steps < maxNodesPerChain; steps++ {
		if nodeAddr == 0 || nodeAddr == nullObj {
			return
		}
		raw, err := r.ReadBytes(nodeAddr, ScoreNodeSize)
		if err != nil {
			return
		}
		node := decodeScoreNode(memory.NewBuffer(raw))
		if node.valid() {
			slot := int(node.difficulty) + int(node.playType)*5
			data, ok := into.scores[uint32(node.songID)]
			if !ok {
				data = &ScoreData{SongID: uint32(node.songID)}
				into.scores[uint32(node.songID)] = data
			}
			data.ExScore[slot] = node.exScore
			data.Lamp[slot] = Lamp(node.lamp)
			if node.missCount != MissCountUnavailable {
				mc := node.missCount
				data.MissCount[slot] = &mc
			}
		}
		nodeAddr = node.next
	}
}

// ValidateScoreNode checks whether the 64 bytes at addr look like a score
// node. Discovery samples table entries with it before promoting a
// data-map candidate.
func ValidateScoreNode(r memory.Reader, addr uint64) bool {
	raw, err := r.ReadBytes(addr, ScoreNodeSize)
	if err != nil {
		return false
	}
	node := decodeScoreNode(memory.NewBuffer(raw))
	if !node.valid() {
		return false
	}
	if node.exScore > 200000 {
		return false
	}
	if node.missCount > 10000 && node.missCount != MissCountUnavailable {
		return false
	}
	return true
}
