package game

import (
	"testing"

	"InfTrack/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsBuilder() *memory.MockBuilder {
	// Room for the marker below the block and the 2P block above it.
	return memory.NewMockBuilder().Base(0x2000).WithSize(0x100)
}

const settingsAddr = 0x2000 + SongSelectMarkerOffset

func TestReadPlaySettingsP1(t *testing.T) {
	b := settingsBuilder()
	base := int(SongSelectMarkerOffset)
	b.WriteI32(base+settingsStyleOffset, int32(StyleRandom))
	b.WriteI32(base+settingsGaugeOffset, int32(GaugeHard))
	b.WriteI32(base+settingsRangeOffset, int32(RangeSuddenPlus))
	b.WriteI32(base+settingsFlipOffset, 1)
	r := b.Build()

	s, err := ReadPlaySettings(r, settingsAddr, PlayP1)
	require.NoError(t, err)
	assert.Equal(t, StyleRandom, s.Style)
	assert.Equal(t, GaugeHard, s.Gauge)
	assert.Equal(t, RangeSuddenPlus, s.Range)
	assert.True(t, s.Flip)
	assert.Equal(t, StyleOff, s.Style2)
}

func TestReadPlaySettingsP2UsesOffsetBlock(t *testing.T) {
	b := settingsBuilder()
	base := int(SongSelectMarkerOffset) + SettingsP2Offset
	b.WriteI32(base+settingsStyleOffset, int32(StyleMirror))
	b.WriteI32(base+settingsGaugeOffset, int32(GaugeEasy))
	b.WriteI32(base+settingsAssistOffset, int32(AssistAutoScratch))
	r := b.Build()

	s, err := ReadPlaySettings(r, settingsAddr, PlayP2)
	require.NoError(t, err)
	assert.Equal(t, StyleMirror, s.Style)
	assert.Equal(t, GaugeEasy, s.Gauge)
	assert.Equal(t, AssistAutoScratch, s.Assist)
}

func TestReadPlaySettingsDPKeepsStyle2(t *testing.T) {
	b := settingsBuilder()
	base := int(SongSelectMarkerOffset)
	b.WriteI32(base+settingsStyleOffset, int32(StyleRandom))
	b.WriteI32(base+settingsStyle2Offset, int32(StyleMirror))
	r := b.Build()

	s, err := ReadPlaySettings(r, settingsAddr, PlayDP)
	require.NoError(t, err)
	assert.Equal(t, StyleRandom, s.Style)
	assert.Equal(t, StyleMirror, s.Style2)
}

func TestDecodePlaySettingsRejectsOutOfRange(t *testing.T) {
	raw := make([]byte, PlaySettingsSize)
	raw[settingsStyleOffset] = 7 // beyond SYMMETRY RANDOM

	_, err := DecodePlaySettings(memory.NewBuffer(raw))
	var invalid *InvalidStructureError
	assert.ErrorAs(t, err, &invalid)
}

func TestReadSongSelectMarker(t *testing.T) {
	b := settingsBuilder()
	b.WriteI32(0, MarkerSelect) // marker word sits below the block
	r := b.Build()

	marker, err := ReadSongSelectMarker(r, settingsAddr)
	require.NoError(t, err)
	assert.Equal(t, int32(MarkerSelect), marker)
}
