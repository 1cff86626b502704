package game

import (
	"testing"

	"InfTrack/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSongEntry lays out one song entry at offset in the builder.
func writeSongEntry(b *memory.MockBuilder, offset int, id uint32, title, artist, genre string, bpmMin, bpmMax uint16, levels [10]uint8) {
	b.WithSize(offset + SongEntrySize)
	b.WriteShiftJIS(offset+songTitleOffset, title)
	b.WriteShiftJIS(offset+songTitleYomiOffset, title)
	b.WriteShiftJIS(offset+songArtistOffset, artist)
	b.WriteShiftJIS(offset+songGenreOffset, genre)
	b.WriteU16(offset+songBpmMinOffset, bpmMin)
	b.WriteU16(offset+songBpmMaxOffset, bpmMax)
	b.WriteBytes(offset+songLevelsOffset, levels[:])
	for i := 0; i < 10; i++ {
		b.WriteU32(offset+songNotesOffset+i*4, uint32(500+i*100))
	}
	b.WriteU32(offset+songIDOffset, id)
}

func TestDecodeSongRoundTrip(t *testing.T) {
	b := memory.NewMockBuilder()
	levels := [10]uint8{0, 5, 8, 11, 0, 0, 5, 8, 11, 0}
	writeSongEntry(b, 0, 20123, "GAMBOL", "dj nagureo", "PIANO AMBIENT", 120, 150, levels)
	r := b.Build()

	raw, err := r.ReadBytes(0x1000, SongEntrySize)
	require.NoError(t, err)

	song, err := DecodeSong(memory.NewBuffer(raw))
	require.NoError(t, err)
	require.NotNil(t, song)

	assert.Equal(t, uint32(20123), song.ID)
	assert.Equal(t, "GAMBOL", song.Title)
	assert.Equal(t, "dj nagureo", song.Artist)
	assert.Equal(t, "PIANO AMBIENT", song.Genre)
	assert.Equal(t, uint16(120), song.BpmMin)
	assert.Equal(t, uint16(150), song.BpmMax)
	assert.Equal(t, levels, song.Levels)
	assert.Equal(t, uint8(11), song.Level(SPA))
	assert.Equal(t, uint32(800), song.TotalNotes(SPA))
	assert.Equal(t, "120~150", song.Bpm())
}

func TestDecodeSongZeroHeadIsSentinel(t *testing.T) {
	r := memory.NewMockBuilder().WithSize(SongEntrySize).Build()
	raw, err := r.ReadBytes(0x1000, SongEntrySize)
	require.NoError(t, err)

	song, err := DecodeSong(memory.NewBuffer(raw))
	assert.NoError(t, err)
	assert.Nil(t, song)
}

func TestDecodeSongRejectsBadSongID(t *testing.T) {
	b := memory.NewMockBuilder()
	writeSongEntry(b, 0, 999, "X", "Y", "Z", 100, 100, [10]uint8{})
	raw, _ := b.Build().ReadBytes(0x1000, SongEntrySize)

	_, err := DecodeSong(memory.NewBuffer(raw))
	var invalid *InvalidStructureError
	require.ErrorAs(t, err, &invalid)
}

func TestDecodeSongRejectsInvertedBpm(t *testing.T) {
	b := memory.NewMockBuilder()
	writeSongEntry(b, 0, 1500, "X", "Y", "Z", 200, 100, [10]uint8{})
	raw, _ := b.Build().ReadBytes(0x1000, SongEntrySize)

	_, err := DecodeSong(memory.NewBuffer(raw))
	var invalid *InvalidStructureError
	require.ErrorAs(t, err, &invalid)
}

func TestFetchSongList(t *testing.T) {
	b := memory.NewMockBuilder()
	for i := 0; i < 5; i++ {
		writeSongEntry(b, i*SongEntrySize, uint32(1000+i), "SONG", "ARTIST", "GENRE", 140, 140, [10]uint8{1: 5})
	}
	// End-of-list sentinel plus slack so reads past the end succeed.
	b.WithSize(16 * SongEntrySize)
	r := b.Build()

	songs, err := FetchSongList(r, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, 5, songs.Len())

	song := songs.ByID(1003)
	require.NotNil(t, song)
	assert.Equal(t, uint32(1003), song.ID)
	assert.Nil(t, songs.ByID(4242))
}

func TestCountSongsStopsEarly(t *testing.T) {
	b := memory.NewMockBuilder()
	for i := 0; i < 8; i++ {
		writeSongEntry(b, i*SongEntrySize, uint32(2000+i), "T", "A", "G", 150, 150, [10]uint8{})
	}
	b.WithSize(24 * SongEntrySize)
	r := b.Build()

	assert.Equal(t, 3, CountSongsAt(r, 0x1000, 3))
	assert.Equal(t, 8, CountSongsAt(r, 0x1000, 100))
}
