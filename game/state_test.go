package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDetector() (*Detector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	return NewDetectorWithClock(clock.now), clock
}

func menuObs() Observation {
	return Observation{Marker: MarkerSelect}
}

func selectingObs(songID uint32) Observation {
	return Observation{
		Current: CurrentSong{SongID: songID, Difficulty: SPA},
		Marker:  MarkerSelect,
	}
}

func playingObs(songID uint32) Observation {
	return Observation{
		Current:      CurrentSong{SongID: songID, Difficulty: SPA},
		Marker:       MarkerPlay,
		JudgeMarker1: 1,
	}
}

func resultObs(songID uint32, exScore uint32, missCount int32) Observation {
	return Observation{
		Current: CurrentSong{SongID: songID, Difficulty: SPA},
		Marker:  MarkerPlay,
		Play: PlayData{
			SongID:     songID,
			Difficulty: SPA,
			ExScore:    exScore,
			MissCount:  missCount,
			ClearLamp:  LampHardClear,
		},
	}
}

func TestDetectorFullCycle(t *testing.T) {
	d, _ := newTestDetector()

	tr := d.Observe(menuObs())
	assert.Equal(t, StateMenu, tr.To)

	tr = d.Observe(selectingObs(20123))
	assert.Equal(t, StateSelecting, tr.To)
	assert.Equal(t, uint32(20123), d.Selected().SongID)

	tr = d.Observe(playingObs(20123))
	assert.Equal(t, StatePlaying, tr.To)
	assert.True(t, tr.Changed)

	tr = d.Observe(resultObs(20123, 1720, 6))
	assert.Equal(t, StateResult, tr.To)
	assert.True(t, tr.ResultReady)

	// Back to the menus.
	tr = d.Observe(selectingObs(20123))
	assert.Equal(t, StateSelecting, tr.To)
	assert.False(t, tr.ResultReady)
}

func TestDetectorReadFailureGoesOff(t *testing.T) {
	d, _ := newTestDetector()
	d.Observe(selectingObs(20123))

	tr := d.Observe(Observation{ReadFailed: true})
	assert.Equal(t, StateOff, tr.To)
	assert.True(t, tr.Changed)
}

func TestDetectorResultRequiresMatchingSong(t *testing.T) {
	d, _ := newTestDetector()
	d.Observe(selectingObs(20123))
	d.Observe(playingObs(20123))

	// Play data names a different chart; do not trust it as a result.
	obs := resultObs(11111, 900, 2)
	tr := d.Observe(obs)
	assert.NotEqual(t, StateResult, tr.To)
	assert.False(t, tr.ResultReady)
}

func TestDetectorDebouncesIdenticalResult(t *testing.T) {
	d, clock := newTestDetector()
	d.Observe(selectingObs(20123))
	d.Observe(playingObs(20123))

	tr := d.Observe(resultObs(20123, 1720, 6))
	assert.True(t, tr.ResultReady)

	// A second identical Playing -> Result edge 400 ms later.
	clock.advance(200 * time.Millisecond)
	d.Observe(playingObs(20123))
	clock.advance(200 * time.Millisecond)
	tr = d.Observe(resultObs(20123, 1720, 6))
	assert.Equal(t, StateResult, tr.To)
	assert.False(t, tr.ResultReady, "identical result within the window must be suppressed")
}

func TestDetectorAllowsIdenticalResultAfterWindow(t *testing.T) {
	d, clock := newTestDetector()
	d.Observe(selectingObs(20123))
	d.Observe(playingObs(20123))
	tr := d.Observe(resultObs(20123, 1720, 6))
	assert.True(t, tr.ResultReady)

	clock.advance(2 * time.Second)
	d.Observe(playingObs(20123))
	tr = d.Observe(resultObs(20123, 1720, 6))
	assert.True(t, tr.ResultReady, "same score replayed later is a real result")
}

func TestDetectorAllowsDifferentResultImmediately(t *testing.T) {
	d, clock := newTestDetector()
	d.Observe(selectingObs(20123))
	d.Observe(playingObs(20123))
	tr := d.Observe(resultObs(20123, 1720, 6))
	assert.True(t, tr.ResultReady)

	clock.advance(100 * time.Millisecond)
	d.Observe(playingObs(20123))
	tr = d.Observe(resultObs(20123, 1800, 3))
	assert.True(t, tr.ResultReady, "a different score tuple is a new result")
}

func TestDetectorHoldsMenuSideStateMidTransition(t *testing.T) {
	d, _ := newTestDetector()
	d.Observe(selectingObs(20123))

	// Both markers drop during the screen fade; hold Selecting.
	tr := d.Observe(Observation{Current: CurrentSong{SongID: 20123}})
	assert.Equal(t, StateSelecting, tr.To)
	assert.False(t, tr.Changed)
}

func TestDetectorReset(t *testing.T) {
	d, _ := newTestDetector()
	d.Observe(selectingObs(20123))
	d.Reset()
	assert.Equal(t, StateOff, d.State())
	assert.Equal(t, uint32(0), d.Selected().SongID)
}
