package game

import (
	"InfTrack/memory"

	"github.com/rs/zerolog/log"
)

// Song list entry layout. One entry per song, fixed stride, Shift-JIS
// strings in 64-byte slabs.
const (
	SongEntrySize = 0x3E8

	songTitleOffset     = 0x000
	songTitleYomiOffset = 0x040
	songArtistOffset    = 0x080
	songGenreOffset     = 0x0C0
	songSlabSize        = 0x40

	songBpmMinOffset = 0x100
	songBpmMaxOffset = 0x102
	songFolderOffset = 0x110
	songLevelsOffset = 0x118
	songNotesOffset  = 0x1B0
	songIDOffset     = 0x270
)

// Song is one decoded song-list entry.
type Song struct {
	ID        uint32
	Title     string
	TitleYomi string
	Artist    string
	Genre     string
	BpmMin    uint16
	BpmMax    uint16
	Folder    uint8
	// Chart level per difficulty slot, SPB..DPL. Zero means no chart.
	Levels [10]uint8
	// Total notes per difficulty slot.
	NoteCounts [10]uint32
}

// Level returns the chart level for a difficulty, zero when absent.
func (s *Song) Level(d Difficulty) uint8 {
	if !d.Valid() {
		return 0
	}
	return s.Levels[d]
}

// TotalNotes returns the note count for a difficulty, zero when absent.
func (s *Song) TotalNotes(d Difficulty) uint32 {
	if !d.Valid() {
		return 0
	}
	return s.NoteCounts[d]
}

// Bpm formats the BPM range the way the game displays it.
func (s *Song) Bpm() string {
	if s.BpmMin != 0 && s.BpmMin != s.BpmMax {
		return formatBpm(s.BpmMin) + "~" + formatBpm(s.BpmMax)
	}
	return formatBpm(s.BpmMax)
}

func formatBpm(v uint16) string {
	digits := []byte{'0' + byte(v/100%10), '0' + byte(v/10%10), '0' + byte(v%10)}
	return string(digits)
}

// DecodeSong decodes one song entry from an already-read buffer. An entry
// whose leading bytes are zero is the end-of-list sentinel and decodes to
// (nil, nil).
func DecodeSong(buf *memory.Buffer) (*Song, error) {
	if buf.Len() < SongEntrySize {
		return nil, invalidStructure("song entry too short", buf.Bytes())
	}
	head, _ := buf.U32At(0)
	if head == 0 {
		return nil, nil
	}

	song := &Song{}
	title, _ := buf.Slice(songTitleOffset, songSlabSize)
	song.Title = DecodeShiftJIS(title)
	yomi, _ := buf.Slice(songTitleYomiOffset, songSlabSize)
	song.TitleYomi = DecodeShiftJIS(yomi)
	artist, _ := buf.Slice(songArtistOffset, songSlabSize)
	song.Artist = DecodeShiftJIS(artist)
	genre, _ := buf.Slice(songGenreOffset, songSlabSize)
	song.Genre = DecodeShiftJIS(genre)

	song.BpmMin, _ = buf.U16At(songBpmMinOffset)
	song.BpmMax, _ = buf.U16At(songBpmMaxOffset)
	if song.BpmMax != 0 && song.BpmMin > song.BpmMax {
		return nil, invalidStructure("bpm_min above bpm_max", buf.Bytes())
	}
	song.Folder, _ = buf.U8At(songFolderOffset)

	levels, _ := buf.Slice(songLevelsOffset, 10)
	copy(song.Levels[:], levels)
	for i := range song.NoteCounts {
		song.NoteCounts[i], _ = buf.U32At(songNotesOffset + i*4)
	}

	id, _ := buf.I32At(songIDOffset)
	if !ValidSongID(id) {
		return nil, invalidStructure("song_id out of range", buf.Bytes())
	}
	song.ID = uint32(id)
	return song, nil
}

// ReadSong reads and decodes the song entry at address. (nil, nil) marks
// the end-of-list sentinel.
func ReadSong(r memory.Reader, address uint64) (*Song, error) {
	raw, err := r.ReadBytes(address, SongEntrySize)
	if err != nil {
		return nil, err
	}
	return DecodeSong(memory.NewBuffer(raw))
}

// SongList is the immutable song database built once per discovered
// address: entries in the game's canonical order plus an ID index.
type SongList struct {
	Songs []Song
	byID  map[uint32]int
}

// ByID returns the song with the given ID, or nil.
func (sl *SongList) ByID(id uint32) *Song {
	i, ok := sl.byID[id]
	if !ok {
		return nil
	}
	return &sl.Songs[i]
}

func (sl *SongList) Len() int { return len(sl.Songs) }

// FetchSongList walks entries from songListAddr until the end-of-list
// sentinel. Entries with empty titles are skipped but tolerated up to a
// small run, since the table can carry gaps.
func FetchSongList(r memory.Reader, songListAddr uint64) (*SongList, error) {
	const maxGap = 10

	sl := &SongList{byID: make(map[uint32]int)}
	gap := 0
	for position := uint64(0); ; position += SongEntrySize {
		song, err := ReadSong(r, songListAddr+position)
		if err != nil {
			if _, ok := err.(*InvalidStructureError); ok {
				gap++
				if gap >= maxGap {
					break
				}
				continue
			}
			return nil, err
		}
		if song == nil {
			break
		}
		if song.Title == "" {
			gap++
			if gap >= maxGap {
				break
			}
			continue
		}
		gap = 0
		sl.byID[song.ID] = len(sl.Songs)
		sl.Songs = append(sl.Songs, *song)
	}

	log.Info().Int("songs", sl.Len()).Msg("song list loaded")
	return sl, nil
}

// CountSongsAt counts decodable entries with non-empty titles at a
// candidate song-list address. Discovery uses the count to rank
// candidates; counting stops early once enough entries confirm the run.
func CountSongsAt(r memory.Reader, songListAddr uint64, enough int) int {
	const maxFailures = 10

	count := 0
	failures := 0
	for position := uint64(0); ; position += SongEntrySize {
		if enough > 0 && count >= enough {
			return count
		}
		song, err := ReadSong(r, songListAddr+position)
		if err != nil {
			if _, ok := err.(*InvalidStructureError); ok {
				failures++
				if failures >= maxFailures {
					break
				}
				continue
			}
			break
		}
		if song == nil || song.Title == "" {
			failures++
			if failures >= maxFailures {
				break
			}
			continue
		}
		failures = 0
		count++
	}
	return count
}
