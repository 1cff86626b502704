package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"InfTrack/game"
	"InfTrack/memory"
	"InfTrack/offsets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveImage is a mutable fake of the game's address space, so a test can
// move it through menu, play and result phases while the tracker polls.
type liveImage struct {
	mu      sync.Mutex
	base    uint64
	builder *memory.MockBuilder
	reader  *memory.MockReader
	dead    bool
}

const (
	imgBase        = uint64(0x100000)
	imgJudgeOff    = 0x10000
	imgCurrentOff  = imgJudgeOff + 0x1E4
	imgSettingsOff = 0x8000
	imgPlayDataOff = imgSettingsOff + 0x2A0
	imgSongListOff = 0x20000
	testSongID     = 20123
	testSongTitle  = "GAMBOL"
)

func newLiveImage(base uint64) *liveImage {
	b := memory.NewMockBuilder().Base(base).WithSize(0x30000)
	writeSong(b, imgSongListOff, testSongID, testSongTitle)
	img := &liveImage{base: base, builder: b, reader: b.Build()}
	img.setSelecting()
	return img
}

func (img *liveImage) offsets() *offsets.Collection {
	return &offsets.Collection{
		Version:      "test",
		SongList:     img.base + imgSongListOff,
		DataMap:      img.base + 0x100,
		JudgeData:    img.base + imgJudgeOff,
		PlayData:     img.base + imgPlayDataOff,
		PlaySettings: img.base + imgSettingsOff,
		UnlockData:   img.base + 0x200,
		CurrentSong:  img.base + imgCurrentOff,
	}
}

func (img *liveImage) ReadBytes(address uint64, size int) ([]byte, error) {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.dead {
		return nil, &memory.ReadError{Address: address, Requested: size}
	}
	return img.reader.ReadBytes(address, size)
}

func (img *liveImage) BaseAddress() uint64 { return img.base }

// kill makes every further read fail, as if the process exited.
func (img *liveImage) kill() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.dead = true
}

func (img *liveImage) setSelecting() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.builder.WriteI32(imgCurrentOff, testSongID)
	img.builder.WriteI32(imgCurrentOff+4, int32(game.SPA))
	img.builder.WriteI32(imgSettingsOff-game.SongSelectMarkerOffset, game.MarkerSelect)
	img.builder.WriteI32(imgJudgeOff+game.JudgeStateMarker1, 0)
}

func (img *liveImage) setPlaying() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.builder.WriteI32(imgSettingsOff-game.SongSelectMarkerOffset, game.MarkerPlay)
	img.builder.WriteI32(imgJudgeOff+game.JudgeStateMarker1, 1)
	img.builder.WriteU32(imgJudgeOff, 800) // P1 pgreat
	img.builder.WriteU32(imgJudgeOff+4, 120)
}

func (img *liveImage) setResult() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.builder.WriteI32(imgJudgeOff+game.JudgeStateMarker1, 0)
	img.builder.WriteI32(imgPlayDataOff, testSongID)
	img.builder.WriteI32(imgPlayDataOff+4, int32(game.SPA))
	img.builder.WriteI32(imgPlayDataOff+8, 1720)
	img.builder.WriteI32(imgPlayDataOff+12, 6)
	img.builder.WriteI32(imgPlayDataOff+0x18, int32(game.LampHardClear))
}

type captureSink struct {
	records chan PlayRecord
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) OnPlay(record PlayRecord) error {
	s.records <- record
	return nil
}

func TestTrackerEmitsCompletedPlay(t *testing.T) {
	img := newLiveImage(imgBase)
	capture := &captureSink{records: make(chan PlayRecord, 8)}

	tr := New(capture)
	tr.PollInterval = 2 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, img, img.offsets()) }()

	time.Sleep(30 * time.Millisecond)
	img.setPlaying()
	time.Sleep(30 * time.Millisecond)
	img.setResult()

	select {
	case rec := <-capture.records:
		assert.Equal(t, uint32(testSongID), rec.SongID)
		assert.Equal(t, game.SPA, rec.Difficulty)
		assert.Equal(t, uint32(1720), rec.ExScore)
		assert.Equal(t, game.LampHardClear, rec.ClearLamp)
		assert.Equal(t, testSongTitle, rec.Title())
		assert.Equal(t, uint32(800), rec.Judge.PGreat)
	case <-time.After(2 * time.Second):
		t.Fatal("no play record emitted")
	}

	// No second emission without a new play.
	select {
	case rec := <-capture.records:
		t.Fatalf("unexpected duplicate record: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestTrackerStopsOnCancel(t *testing.T) {
	img := newLiveImage(imgBase)
	tr := New()
	tr.PollInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, img, img.offsets()) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop on cancellation")
	}
}

func TestTrackerReturnsWhenProcessLost(t *testing.T) {
	img := newLiveImage(imgBase)
	tr := New()
	tr.PollInterval = time.Millisecond
	tr.ReadErrorThreshold = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, img, img.offsets()) }()

	time.Sleep(10 * time.Millisecond)
	img.kill()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrProcessLost)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not report process loss")
	}
}

// Process restart: the old image dies, a new one appears at a different
// base. The tracker re-discovers and emissions resume.
func TestTrackerRediscoversAfterRestart(t *testing.T) {
	img1 := newLiveImage(imgBase)
	img2 := newLiveImage(imgBase + 0x800000)
	capture := &captureSink{records: make(chan PlayRecord, 8)}

	tr := New(capture)
	tr.PollInterval = 2 * time.Millisecond
	tr.ReadErrorThreshold = 3
	tr.Attach = func(ctx context.Context) (memory.Reader, error) {
		return img2, nil
	}
	tr.Discover = func(r memory.Reader) (*offsets.Collection, error) {
		return img2.offsets(), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, img1, img1.offsets()) }()

	// First play on the first process instance.
	time.Sleep(20 * time.Millisecond)
	img1.setPlaying()
	time.Sleep(20 * time.Millisecond)
	img1.setResult()

	select {
	case rec := <-capture.records:
		assert.Equal(t, uint32(testSongID), rec.SongID)
	case <-time.After(2 * time.Second):
		t.Fatal("no record from first process instance")
	}

	// The process exits and restarts at a new base address.
	img1.kill()

	// Allow the loss threshold and the reattach backoff to elapse.
	time.Sleep(1500 * time.Millisecond)

	img2.setPlaying()
	time.Sleep(30 * time.Millisecond)
	img2.setResult()

	select {
	case rec := <-capture.records:
		assert.Equal(t, uint32(testSongID), rec.SongID)
		assert.Equal(t, uint32(1720), rec.ExScore)
	case <-time.After(3 * time.Second):
		t.Fatal("no record after re-discovery")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
