package offsets

// Search tuning. The displacement table is the one part of this package
// expected to change per game version; the windows stay fixed because
// widening them raises the false-positive rate faster than it helps.
// Any window widening must come with additional cross-validation
// predicates, not instead of them.
const (
	// initialSearchSize is the half-width of the first buffer loaded
	// around a hint address (2 MB).
	initialSearchSize = 2 * 1024 * 1024
	// maxSearchSize caps the widening search (300 MB half-width), which
	// covers the whole module from any in-module hint.
	maxSearchSize = 300 * 1024 * 1024

	// expectedSongListOffset is where the song list usually sits relative
	// to the module base. Starting the seed scan there accelerates the
	// common case; a miss falls back to the widening scan.
	expectedSongListOffset = 0x3180000

	// minValidSongRun is the smallest run of decodable entries that
	// promotes a song-list candidate.
	minValidSongRun = 100
	// songCountEnough stops counting once a candidate is clearly real.
	songCountEnough = 1000
)

// Relative displacements between anchors and their search half-windows.
// The displacements drift by under 512 bytes across game versions; the
// windows absorb the drift.
const (
	// JudgeData = SongList - judgeToSongList
	judgeToSongList      = 0x94E3C8
	judgeDataSearchRange = 0x10000 // +/-64 KiB

	// PlaySettings = JudgeData - judgeToPlaySettings
	judgeToPlaySettings     = 0x2ACFA8
	playSettingsSearchRange = 0x200 // +/-512 B

	// PlayData = PlaySettings + playSettingsToPlayData
	playSettingsToPlayData = 0x2A0
	playDataSearchRange    = 0x100 // +/-256 B

	// CurrentSong = JudgeData + judgeToCurrentSong
	judgeToCurrentSong     = 0x1E4
	currentSongSearchRange = 0x100 // +/-256 B
)

// seedPattern is the ASCII marker embedded near the song list. It has
// survived every observed game version.
var seedPattern = []byte("5.1.1.")

// DataMap scan bounds.
const (
	dataMapMinTableBytes = 0x2000
	dataMapMaxTableBytes = 0x1000000
	dataMapScanBytes     = 0x4000
	dataMapNodeSamples   = 32
)
