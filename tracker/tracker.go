package tracker

import (
	"context"
	"errors"
	"time"

	"InfTrack/game"
	"InfTrack/memory"
	"InfTrack/offsets"

	"github.com/rs/zerolog/log"
)

// ErrProcessLost is returned by Run when the target process disappears
// and no reattach hook was provided.
var ErrProcessLost = errors.New("target process lost")

// DefaultPollInterval is the detector's poll cadence.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultReadErrorThreshold is how many consecutive failed polls flip
// the tracker into Off and trigger re-discovery.
const DefaultReadErrorThreshold = 10

// Tracker owns the live offsets and the detector, polls the target, and
// turns Result edges into PlayRecords for the sinks.
type Tracker struct {
	// PollInterval between detector ticks; DefaultPollInterval if zero.
	PollInterval time.Duration
	// ReadErrorThreshold before the process is declared gone.
	ReadErrorThreshold int

	// Attach reopens the target after a process restart. Optional: when
	// nil, Run returns ErrProcessLost instead of re-discovering.
	Attach func(ctx context.Context) (memory.Reader, error)
	// Discover re-runs offset discovery against a fresh process.
	Discover func(r memory.Reader) (*offsets.Collection, error)

	sinks    []Sink
	detector *game.Detector
	errs     chan error
	now      func() time.Time
}

func New(sinks ...Sink) *Tracker {
	return &Tracker{
		PollInterval:       DefaultPollInterval,
		ReadErrorThreshold: DefaultReadErrorThreshold,
		sinks:              sinks,
		detector:           game.NewDetector(),
		errs:               make(chan error, 16),
		now:                time.Now,
	}
}

// Errors exposes sink and delivery failures. The tracker never stops
// because a sink failed; failures surface here for observability.
func (t *Tracker) Errors() <-chan error { return t.errs }

// Run polls until ctx is cancelled or the process is lost beyond the
// re-discovery budget. The caller supplies an attached reader and a
// discovered collection; both are dropped and rebuilt if the process
// restarts and Attach/Discover are wired.
func (t *Tracker) Run(ctx context.Context, r memory.Reader, c *offsets.Collection) error {
	if t.PollInterval <= 0 {
		t.PollInterval = DefaultPollInterval
	}
	if t.ReadErrorThreshold <= 0 {
		t.ReadErrorThreshold = DefaultReadErrorThreshold
	}

	workers := make([]*sinkWorker, 0, len(t.sinks))
	for _, sink := range t.sinks {
		w := newSinkWorker(sink, t.errs)
		workers = append(workers, w)
		go w.run(ctx)
	}

	songs, err := game.FetchSongList(r, c.SongList)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(t.PollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	log.Info().Msg("tracker loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		obs := t.poll(r, c)
		if obs.ReadFailed {
			consecutiveErrors++
			if consecutiveErrors >= t.ReadErrorThreshold {
				log.Warn().Int("polls", consecutiveErrors).Msg("target unreadable; dropping offsets")
				r2, c2, songs2, err := t.recover(ctx)
				if err != nil {
					return err
				}
				r, c, songs = r2, c2, songs2
				consecutiveErrors = 0
				t.detector.Reset()
				continue
			}
		} else {
			consecutiveErrors = 0
		}

		transition := t.detector.Observe(obs)
		if transition.Changed {
			log.Info().
				Stringer("from", transition.From).
				Stringer("to", transition.To).
				Msg("state transition")
		}
		if transition.ResultReady {
			record := t.snapshot(r, c, &obs, songs)
			log.Info().
				Uint32("song", record.SongID).
				Str("title", record.Title()).
				Uint32("exScore", record.ExScore).
				Stringer("lamp", record.ClearLamp).
				Msg("play recorded")
			for _, w := range workers {
				w.offer(record)
			}
		}
	}
}

// poll takes one observation of the tracked structures. Any read failure
// marks the whole observation failed; the detector maps that to Off.
func (t *Tracker) poll(r memory.Reader, c *offsets.Collection) game.Observation {
	var obs game.Observation

	m1, m2, err := game.ReadJudgeMarkers(r, c.JudgeData)
	if err != nil {
		obs.ReadFailed = true
		return obs
	}
	obs.JudgeMarker1, obs.JudgeMarker2 = m1, m2

	marker, err := game.ReadSongSelectMarker(r, c.PlaySettings)
	if err != nil {
		obs.ReadFailed = true
		return obs
	}
	obs.Marker = marker

	current, err := game.ReadCurrentSong(r, c.CurrentSong)
	if err != nil {
		// Mid-write garbage decodes as invalid; treat as no selection
		// rather than process loss.
		var readErr *memory.ReadError
		if errors.As(err, &readErr) {
			obs.ReadFailed = true
			return obs
		}
		current = &game.CurrentSong{}
	}
	obs.Current = *current

	play, err := game.ReadPlayData(r, c.PlayData)
	if err != nil {
		var readErr *memory.ReadError
		if errors.As(err, &readErr) {
			obs.ReadFailed = true
			return obs
		}
		play = &game.PlayData{}
	}
	obs.Play = *play

	return obs
}

// snapshot materializes the completed play from the structures read on
// the Result edge.
func (t *Tracker) snapshot(r memory.Reader, c *offsets.Collection, obs *game.Observation, songs *game.SongList) PlayRecord {
	judge, err := game.ReadJudge(r, c.JudgeData)
	if err != nil {
		judge = game.Judge{}
	}
	settings, err := game.ReadPlaySettings(r, c.PlaySettings, judge.PlayType)
	if err != nil {
		settings = nil
	}
	return buildRecord(t.now(), &obs.Play, judge, settings, songs)
}

// recover waits for the target process to come back, reattaches and
// re-runs discovery. Addresses survive game ticks, never game restarts.
func (t *Tracker) recover(ctx context.Context) (memory.Reader, *offsets.Collection, *game.SongList, error) {
	if t.Attach == nil || t.Discover == nil {
		return nil, nil, nil, ErrProcessLost
	}

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return nil, nil, nil, ctx.Err()
		case <-time.After(backoff):
		}

		r, err := t.Attach(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("waiting for target process")
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}

		c, err := t.Discover(r)
		if err != nil {
			log.Warn().Err(err).Msg("re-discovery failed; retrying")
			continue
		}

		songs, err := game.FetchSongList(r, c.SongList)
		if err != nil {
			log.Warn().Err(err).Msg("song list reload failed; retrying")
			continue
		}

		log.Info().Msg("reattached to target; tracking resumed")
		return r, c, songs, nil
	}
}
