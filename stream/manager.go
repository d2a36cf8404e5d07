// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ik5/soundpool/internal/observe"
	"github.com/ik5/soundpool/internal/workerpool"
	"github.com/ik5/soundpool/output"
	"github.com/ik5/soundpool/sound"
)

type restartEntry struct {
	at int64
	s  *Stream
}

// QueueSizes counts the pairs on each scheduler queue.
type QueueSizes struct {
	Available  int
	Active     int
	Restarting int
	Processing int
}

// Total is always the number of pairs.
func (q QueueSizes) Total() int {
	return q.Available + q.Active + q.Restarting + q.Processing
}

// Manager schedules play requests onto a fixed set of stream pairs.
//
// Each pair is represented on exactly one queue by one of its streams:
// available (idle), active (playing, may be stolen), restarting (waiting
// to be stopped so its pair can start, ordered by stop time) or processing
// (held by a worker or a caller mid hand-off).
type Manager struct {
	*Map

	out         output.Output
	log         *slog.Logger
	metrics     *observe.Metrics
	now         func() int64
	idle        time.Duration
	grace       time.Duration
	streamType  output.StreamType
	flags       output.Flags
	oldestFirst bool
	playOnCall  bool
	strict      bool

	pool *workerpool.Pool
	wake chan struct{}
	done chan struct{}

	mu         sync.Mutex
	available  []*Stream
	active     []*Stream
	restarting []restartEntry
	processing map[*Stream]struct{}
	quit       bool
}

// NewManager returns a manager of pairs stream pairs playing through out.
func NewManager(pairs int, out output.Output, opts ...Option) *Manager {
	c := newConfig(opts)
	pairs = max(1, pairs)

	m := &Manager{
		Map:         newMap(pairs),
		out:         out,
		log:         c.log,
		metrics:     c.metrics,
		now:         c.now,
		idle:        c.idle,
		grace:       c.grace,
		streamType:  c.streamType,
		flags:       c.flags,
		oldestFirst: c.oldestFirst,
		playOnCall:  c.playOnCall,
		strict:      pairs == 1,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		processing:  make(map[*Stream]struct{}),
	}
	if c.strict != nil {
		m.strict = *c.strict
	}
	m.ForEach(func(s *Stream) {
		s.m = m
		if s.index&1 == 0 {
			m.available = append(m.available, s)
		}
	})

	threads := max(1, min(pairs, c.threads, runtime.NumCPU()))
	m.pool = workerpool.New(observe.PoolStream, threads,
		workerpool.WithLogger(c.log), workerpool.WithMetrics(c.metrics))
	return m
}

// Snapshot returns the current queue sizes.
func (m *Manager) Snapshot() QueueSizes {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sizesLocked()
}

func (m *Manager) sizesLocked() QueueSizes {
	return QueueSizes{
		Available:  len(m.available),
		Active:     len(m.active),
		Restarting: len(m.restarting),
		Processing: len(m.processing),
	}
}

// Workers returns the number of live restart workers.
func (m *Manager) Workers() int { return m.pool.ActiveCount() }

func (m *Manager) checkQueuesLocked() {
	if q := m.sizesLocked(); q.Total() != m.Pairs() {
		panic(fmt.Sprintf("stream: %d pairs queued (%+v), want %d", q.Total(), q, m.Pairs()))
	}
}

// QueueForPlay admits a play request and returns its stream id, or 0 when
// every stream is busy with a request of higher priority.
func (m *Manager) QueueForPlay(snd *sound.Sound, soundID int32, left, right float32, priority, loop int32, rate float32) int32 {
	var garbage []output.Track

	m.mu.Lock()
	if m.quit {
		m.mu.Unlock()
		return 0
	}
	m.checkQueuesLocked()

	var (
		candidate     *Stream
		fromAvailable bool
		result        string
	)

	// An idle pair, preferably one whose track last played this sound.
	if len(m.available) > 0 {
		for _, s := range m.available {
			if s.SoundID() == soundID {
				candidate = s
				break
			}
		}
		if candidate == nil {
			candidate = m.available[0]
		}
		candidate.stopTime.Store(m.now())
		fromAvailable = true
		result = observe.PlayAvailable
	}

	// A stopping stream whose pair has nothing queued behind it.
	if candidate == nil || candidate.SoundID() != soundID {
		for _, e := range m.restarting {
			if e.s.pair.HasSound() {
				continue
			}
			if e.s.SoundID() == soundID {
				candidate, fromAvailable, result = e.s, false, observe.PlayRestart
				break
			}
			if candidate == nil {
				candidate, result = e.s, observe.PlayRestart
			}
		}
	}

	// The lowest priority playing stream not above this request.
	if candidate == nil {
		for _, s := range m.active {
			if s.Priority() <= priority && (candidate == nil || candidate.Priority() > s.Priority()) {
				candidate = s
			}
		}
		if candidate != nil {
			candidate.RequestStop(candidate.StreamID())
			result = observe.PlaySteal
		}
	}

	// Replace a queued request of lower priority.
	if candidate == nil {
		for _, e := range m.restarting {
			if e.s.PairPriority() <= priority {
				candidate, result = e.s, observe.PlayEvict
				break
			}
		}
	}

	if candidate == nil {
		m.mu.Unlock()
		m.log.Debug("no stream for play request", slog.Int("sound_id", int(soundID)), slog.Int("priority", int(priority)))
		m.metrics.RecordPlay(context.Background(), observe.PlayRejected)
		return 0
	}

	p := candidate.pair
	streamID := m.nextID(p)
	m.log.Debug("play request admitted",
		slog.String("from", result),
		slog.Int("stream", candidate.index),
		slog.Int("pair", p.index),
		slog.Int("stream_id", int(streamID)),
	)
	p.setPlay(streamID, snd, soundID, left, right, priority, loop, rate)

	if fromAvailable && m.playOnCall {
		m.removeFromQueuesLocked(candidate, 0)
		m.processing[candidate] = struct{}{}
		m.mu.Unlock()

		next := candidate.playPairStream(&garbage)

		m.mu.Lock()
		delete(m.processing, candidate)
		if next == nil {
			m.available = append(m.available, candidate)
			streamID = 0
			result = observe.PlayRejected
		} else if next.StopTime() != 0 {
			// stopped while starting
			if m.moveToRestartQueueLocked(next, 0) && m.needMoreThreadsLocked() {
				m.launchLocked()
			}
		} else {
			m.addToActiveLocked(next)
		}
	} else if m.moveToRestartQueueLocked(candidate, 0) && m.needMoreThreadsLocked() {
		m.launchLocked()
	}
	m.checkQueuesLocked()
	m.mu.Unlock()

	m.closeTracks(garbage)
	m.metrics.RecordPlay(context.Background(), result)
	return streamID
}

// MoveToRestartQueue queues s to be stopped and handed to its pair. With
// activeIDToMatch > 0 it only acts while s is active under that id, which
// drops events that arrive after the stream moved on.
func (m *Manager) MoveToRestartQueue(s *Stream, activeIDToMatch int32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkQueuesLocked()
	if m.moveToRestartQueueLocked(s, activeIDToMatch) && m.needMoreThreadsLocked() {
		m.launchLocked()
	}
	m.checkQueuesLocked()
}

func (m *Manager) moveToRestartQueueLocked(s *Stream, activeIDToMatch int32) bool {
	if m.inProcessing(s) || m.inProcessing(s.pair) {
		m.log.Debug("restart of a stream being processed", slog.Int("stream", s.index))
		return false
	}
	found := m.removeFromQueuesLocked(s, activeIDToMatch)
	if found < 0 {
		return false
	}
	if found > 1 {
		panic(fmt.Sprintf("stream: stream %d on %d queues", s.index, found))
	}
	m.addToRestartLocked(s)

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

func (m *Manager) inProcessing(s *Stream) bool {
	_, ok := m.processing[s]
	return ok
}

// removeFromQueuesLocked returns how many queues held s, or -1 when
// activeIDToMatch > 0 and s is not active under that id.
func (m *Manager) removeFromQueuesLocked(s *Stream, activeIDToMatch int32) int {
	found := 0
	if i := slices.Index(m.active, s); i >= 0 {
		if activeIDToMatch > 0 && s.StreamID() != activeIDToMatch {
			return -1
		}
		m.active = slices.Delete(m.active, i, i+1)
		found++
	}
	if found == 0 && activeIDToMatch > 0 {
		return -1
	}
	if i := slices.IndexFunc(m.restarting, func(e restartEntry) bool { return e.s == s }); i >= 0 {
		m.restarting = slices.Delete(m.restarting, i, i+1)
		found++
	}
	if i := slices.Index(m.available, s); i >= 0 {
		m.available = slices.Delete(m.available, i, i+1)
		found++
	}
	return found
}

// addToRestartLocked keeps the queue ordered by stop time; equal times keep
// arrival order.
func (m *Manager) addToRestartLocked(s *Stream) {
	at := s.StopTime()
	i := sort.Search(len(m.restarting), func(i int) bool { return m.restarting[i].at > at })
	m.restarting = slices.Insert(m.restarting, i, restartEntry{at: at, s: s})
}

func (m *Manager) addToActiveLocked(s *Stream) {
	if m.oldestFirst {
		m.active = append(m.active, s)
	} else {
		m.active = slices.Insert(m.active, 0, s)
	}
}

// needMoreThreadsLocked reports whether the restart queue holds more due
// entries than there are workers.
func (m *Manager) needMoreThreadsLocked() bool {
	if len(m.restarting) == 0 {
		return false
	}
	workers := m.pool.ActiveCount()
	if workers == 0 {
		return true
	}
	now := m.now()
	due := sort.Search(len(m.restarting), func(i int) bool { return m.restarting[i].at > now })
	return due > workers
}

func (m *Manager) launchLocked() {
	if id := m.pool.Launch(m.run); id != 0 {
		m.log.Debug("restart worker launched", slog.Int("worker", int(id)))
	}
}

// run is a restart worker. It stops due streams in stop time order, starts
// their pairs and exits after IdleTimeout without work.
func (m *Manager) run(id int32) {
	log := m.log.With(slog.Int("worker", int(id)))
	log.Debug("restart worker started")

	timer := time.NewTimer(m.idle)
	timer.Stop()
	var (
		garbage []output.Track
		wait    time.Duration
	)

	m.mu.Lock()
	for !m.quit {
		if wait > 0 {
			m.mu.Unlock()
			timer.Reset(wait)
			select {
			case <-m.wake:
			case <-timer.C:
			case <-m.done:
			}
			timer.Stop()
			m.mu.Lock()
		}
		m.checkQueuesLocked()

		if m.quit || (len(m.restarting) == 0 && wait == m.idle) {
			break
		}

		wait = m.idle
		for !m.quit && len(m.restarting) > 0 {
			e := m.restarting[0]
			if diff := time.Duration(e.s.StopTime() - m.now()); diff > 0 {
				wait = min(wait, diff)
				break
			}
			m.restarting = slices.Delete(m.restarting, 0, 1)
			m.processing[e.s] = struct{}{}
			if !m.strict {
				m.mu.Unlock()
			}

			e.s.stop()
			next := e.s.playPairStream(&garbage)

			if !m.strict {
				m.mu.Lock()
			}
			delete(m.processing, e.s)
			if next != nil {
				m.metrics.RecordRestart(context.Background())
				log.Debug("pair started", slog.Int("stream", e.s.index), slog.Int("stream_id", int(next.StreamID())))
				if next.StopTime() != 0 {
					// stopped again while starting
					m.moveToRestartQueueLocked(next, 0)
				} else {
					m.addToActiveLocked(next)
				}
			} else {
				m.available = append(m.available, e.s)
			}
			m.checkQueuesLocked()

			if len(garbage) > 0 {
				m.mu.Unlock()
				m.closeTracks(garbage)
				garbage = garbage[:0]
				m.mu.Lock()
			}
		}
	}
	m.pool.Release()
	m.mu.Unlock()

	log.Debug("restart worker exiting")
}

func (m *Manager) closeTracks(tracks []output.Track) {
	for _, t := range tracks {
		if err := t.Close(); err != nil {
			m.log.Warn("closing track", slog.Any("error", err))
		}
	}
}

// Quit stops the workers, stops every stream and closes every track. No
// track callback is processed once it returns.
func (m *Manager) Quit() {
	m.mu.Lock()
	if !m.quit {
		m.quit = true
		close(m.done)
	}
	m.mu.Unlock()
	m.pool.Quit()

	m.ForEach(func(s *Stream) { s.stop() })

	var tracks []output.Track
	m.ForEach(func(s *Stream) {
		if t := s.detachTrack(); t != nil {
			tracks = append(tracks, t)
		}
	})
	m.closeTracks(tracks)
}
