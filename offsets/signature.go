package offsets

import (
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// Signature is a legacy code-pattern anchor: a wildcard byte pattern in
// the module's code, with a RIP-relative 32-bit displacement embedded at
// dispOffset and the instruction ending instrLen bytes after the match.
// The referenced data address is match + instrLen + displacement.
type Signature struct {
	Anchor     string
	Pattern    string
	DispOffset int
	InstrLen   int
}

// SignatureSet carries the per-version signature table. Kept as a
// diagnostic fallback: three of the seven anchors stopped producing hits
// on current builds, so the set is disabled unless the capability flag
// on the Searcher is turned on.
type SignatureSet struct {
	Version    string
	Signatures []Signature
}

// DefaultSignatures is the last signature table that produced hits.
// DataMap and UnlockData still resolve on current builds; the rest are
// retained for older ones.
var DefaultSignatures = SignatureSet{
	Version: "legacy",
	Signatures: []Signature{
		{Anchor: AnchorSongList, Pattern: "48 8D 0D ?? ?? ?? ?? E8 ?? ?? ?? ?? 85 C0 74", DispOffset: 3, InstrLen: 7},
		{Anchor: AnchorJudgeData, Pattern: "89 05 ?? ?? ?? ?? 8B 43 04 89 05", DispOffset: 2, InstrLen: 6},
		{Anchor: AnchorPlaySettings, Pattern: "8B 05 ?? ?? ?? ?? 89 44 24 30 85 C0 75", DispOffset: 2, InstrLen: 6},
		{Anchor: AnchorDataMap, Pattern: "48 8B 0D ?? ?? ?? ?? 48 85 C9 74 ?? E8", DispOffset: 3, InstrLen: 7},
		{Anchor: AnchorUnlockData, Pattern: "48 8D 15 ?? ?? ?? ?? 48 8B CE E8 ?? ?? ?? ?? 84 C0", DispOffset: 3, InstrLen: 7},
	},
}

// scanCodeChunkSize is how much code is read per chunk during a
// signature scan.
const scanCodeChunkSize = 4 * 1024 * 1024

// scanCodeLimit bounds the signature scan from the module base.
const scanCodeLimit = 128 * 1024 * 1024

// SearchSignature resolves one signature to a data address, or zero.
func (s *Searcher) SearchSignature(sig Signature) (uint64, error) {
	if !s.EnableSignatureScan {
		return 0, discoveryFailed(sig.Anchor, 0, "signature scan disabled")
	}
	pattern, err := memory.CompilePattern(sig.Pattern)
	if err != nil {
		return 0, err
	}

	base := s.reader.BaseAddress()
	overlap := pattern.Len() - 1
	for chunkStart := 0; chunkStart < scanCodeLimit; chunkStart += scanCodeChunkSize - overlap {
		raw, err := s.reader.ReadBytes(base+uint64(chunkStart), scanCodeChunkSize)
		if err != nil {
			break
		}
		off := pattern.Scan(raw)
		if off < 0 {
			continue
		}
		match := base + uint64(chunkStart) + uint64(off)
		disp, err := memory.ReadI32(s.reader, match+uint64(sig.DispOffset))
		if err != nil {
			return 0, err
		}
		resolved := match + uint64(sig.InstrLen) + uint64(uint32(disp))
		log.Debug().
			Str("anchor", sig.Anchor).
			Uint64("match", match).
			Uint64("resolved", resolved).
			Msg("signature hit")
		return resolved, nil
	}
	return 0, discoveryFailed(sig.Anchor, 0, "signature produced no hits")
}

// DiscoverWithSignatures attempts a signature-only pass over the set.
// Anchors with no hit stay zero; callers merge the result with the
// anchored pass or inspect it for diagnostics.
func (s *Searcher) DiscoverWithSignatures(set SignatureSet) *Collection {
	c := &Collection{Version: set.Version}
	for _, sig := range set.Signatures {
		addr, err := s.SearchSignature(sig)
		if err != nil {
			log.Debug().Str("anchor", sig.Anchor).Err(err).Msg("signature miss")
			continue
		}
		switch sig.Anchor {
		case AnchorSongList:
			c.SongList = addr
		case AnchorDataMap:
			c.DataMap = addr
		case AnchorJudgeData:
			c.JudgeData = addr
		case AnchorPlayData:
			c.PlayData = addr
		case AnchorPlaySettings:
			c.PlaySettings = addr
		case AnchorUnlockData:
			c.UnlockData = addr
		case AnchorCurrentSong:
			c.CurrentSong = addr
		}
	}
	return c
}
