package tracker

import (
	"time"

	"InfTrack/game"
)

// PlayRecord is one completed play, joined against the song database.
// Records are passed to sinks by value; sinks never share state with the
// poll loop.
type PlayRecord struct {
	Timestamp time.Time

	SongID     uint32
	Difficulty game.Difficulty
	PlayStyle  game.PlayType

	// Song is the matching song-list entry; nil when the ID was not in
	// the loaded list (new song, partial list).
	Song *game.Song
	// Level and TotalNotes are copied out of the song entry for the
	// played chart, zero when Song is nil.
	Level      uint8
	TotalNotes uint32

	ExScore   uint32
	MissCount int32
	ClearLamp game.Lamp
	DJLevel   game.DJLevel

	Judge    game.Judge
	Settings game.PlaySettings
}

// Title returns the played song's title, or a placeholder when the song
// list had no entry for the ID.
func (r *PlayRecord) Title() string {
	if r.Song != nil {
		return r.Song.Title
	}
	return "(unknown song)"
}

// MissCountValid reports whether the miss count means anything: assist
// options and premature ends leave it unrecorded.
func (r *PlayRecord) MissCountValid() bool {
	return r.MissCount >= 0 && !r.Judge.PrematureEnd && r.Settings.Assist == game.AssistOff
}

// buildRecord joins the structure snapshots taken on a Result edge.
func buildRecord(ts time.Time, play *game.PlayData, judge game.Judge, settings *game.PlaySettings, songs *game.SongList) PlayRecord {
	rec := PlayRecord{
		Timestamp:  ts,
		SongID:     play.SongID,
		Difficulty: play.Difficulty,
		PlayStyle:  play.PlayStyle,
		ExScore:    play.ExScore,
		MissCount:  play.MissCount,
		ClearLamp:  play.ClearLamp,
		DJLevel:    play.DJLevel,
		Judge:      judge,
	}
	if settings != nil {
		rec.Settings = *settings
	}

	// The judge counters are the authoritative score source; the play
	// data block lags them by a frame on occasion.
	if ex := judge.ExScore(); ex > rec.ExScore {
		rec.ExScore = ex
	}
	if judge.IsPerfect() && rec.ClearLamp == game.LampFullCombo {
		rec.ClearLamp = game.LampPerfect
	}

	if songs != nil {
		if song := songs.ByID(play.SongID); song != nil {
			rec.Song = song
			rec.Level = song.Level(play.Difficulty)
			rec.TotalNotes = song.TotalNotes(play.Difficulty)
			if rec.TotalNotes > 0 {
				rec.DJLevel = game.DJLevelFromScore(rec.ExScore, rec.TotalNotes)
			}
		}
	}
	return rec
}
