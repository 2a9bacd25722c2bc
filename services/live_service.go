package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"match-integrity-system/engine"
	"match-integrity-system/models"
)

var (
	ErrLiveMatchNotFound = errors.New("live match not found")
	ErrLiveMatchFinished = errors.New("live match already finished")
	ErrLiveInputsFull    = errors.New("live input queue is full")
)

const (
	liveInputBuffer = 1024
	recentLiveLimit = 256
)

// StartLiveRequest opens a live match. Inputs arrive later through Submit.
type StartLiveRequest struct {
	MatchID       string      `json:"matchId,omitempty"`
	Home          models.Team `json:"home"`
	Away          models.Team `json:"away"`
	Seed          *uint64     `json:"seed,omitempty"`
	DurationTicks uint64      `json:"durationTicks"`
	Difficulty    string      `json:"difficulty,omitempty"`
}

type liveMatch struct {
	id     string
	owner  string
	inputs chan models.PlayerInput
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	finished    bool
	subscribers map[chan engine.TickEvent]struct{}
	record      *models.MatchRecord
	err         error
}

// LiveService runs matches in wall-clock time, one Runner goroutine each,
// and fans their tick events out to SSE subscribers.
type LiveService struct {
	Matches  *MatchService
	TickWait time.Duration

	mu     sync.Mutex
	live   map[string]*liveMatch
	recent []*liveMatch // finished, newest last
}

// NewLiveService waits at most tickWait for inputs per tick; zero means one
// simulated tick length.
func NewLiveService(matches *MatchService, tickWait time.Duration) *LiveService {
	if tickWait <= 0 {
		tickWait = time.Duration(matches.Sim.Config().TickMs) * time.Millisecond
	}
	return &LiveService{
		Matches:  matches,
		TickWait: tickWait,
		live:     map[string]*liveMatch{},
	}
}

// Start validates the setup and launches the runner. The match keeps running
// after ctx of the calling request ends; use Abort to stop it.
func (s *LiveService) Start(req StartLiveRequest, owner string) (string, error) {
	setup := engine.MatchSetup{
		MatchID:       req.MatchID,
		Home:          req.Home,
		Away:          req.Away,
		DurationTicks: req.DurationTicks,
		Difficulty:    req.Difficulty,
	}
	if setup.MatchID == "" {
		setup.MatchID = NewMatchID(req.Home.ID, req.Away.ID)
	}
	if req.Seed != nil {
		setup.Seed = *req.Seed
	} else {
		setup.Seed = RandomSeed()
	}
	if _, err := s.Matches.Sim.Initialize(setup); err != nil {
		return "", err
	}
	if err := s.Matches.EnsureNew(context.Background(), setup.MatchID); err != nil {
		return "", err
	}

	s.mu.Lock()
	if _, err := s.getLocked(setup.MatchID); err == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrMatchExists, setup.MatchID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	lm := &liveMatch{
		id:          setup.MatchID,
		owner:       owner,
		inputs:      make(chan models.PlayerInput, liveInputBuffer),
		cancel:      cancel,
		done:        make(chan struct{}),
		subscribers: map[chan engine.TickEvent]struct{}{},
	}
	s.live[setup.MatchID] = lm
	s.mu.Unlock()

	feed := engine.NewChannelFeed(lm.inputs)
	runner := engine.NewRunner(s.Matches.Sim, feed, s.TickWait)
	s.Matches.Metrics.LiveMatches.Inc()
	log.Printf("🟢 [LIVE] Match %s started (%d ticks, seed %d)", setup.MatchID, setup.DurationTicks, setup.Seed)

	go lm.fanOut(runner.Events())
	go func() {
		rec, err := runner.Run(ctx, setup)
		cancel()
		s.Matches.Metrics.LiveMatches.Dec()
		s.Matches.Metrics.StaleLiveInputs.Add(float64(feed.Stale()))
		if err == nil {
			// The caller's request is long gone; store with a fresh context.
			_, err = s.Matches.Record(context.Background(), rec, models.SourceLive, owner)
		}
		if err != nil {
			log.Printf("❌ [LIVE] Match %s could not be recorded: %v", setup.MatchID, err)
		} else {
			log.Printf("🏁 [LIVE] Match %s finished %d-%d (aborted=%t)", rec.MatchID, rec.FinalScore.Home, rec.FinalScore.Away, rec.Aborted)
		}
		lm.mu.Lock()
		lm.record, lm.err = rec, err
		lm.mu.Unlock()

		s.mu.Lock()
		delete(s.live, setup.MatchID)
		s.recent = append(s.recent, lm)
		if len(s.recent) > recentLiveLimit {
			s.recent = s.recent[1:]
		}
		s.mu.Unlock()
		close(lm.done)
	}()
	return setup.MatchID, nil
}

func (lm *liveMatch) fanOut(events <-chan engine.TickEvent) {
	for ev := range events {
		lm.mu.Lock()
		for sub := range lm.subscribers {
			select {
			case sub <- ev:
			default:
			}
		}
		lm.mu.Unlock()
	}
	lm.mu.Lock()
	lm.finished = true
	for sub := range lm.subscribers {
		close(sub)
	}
	lm.subscribers = nil
	lm.mu.Unlock()
}

func (s *LiveService) get(matchID string) (*liveMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(matchID)
}

func (s *LiveService) getLocked(matchID string) (*liveMatch, error) {
	if lm, ok := s.live[matchID]; ok {
		return lm, nil
	}
	for i := len(s.recent) - 1; i >= 0; i-- {
		if s.recent[i].id == matchID {
			return s.recent[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLiveMatchNotFound, matchID)
}

// Submit queues inputs for a running match. Inputs for ticks that have
// already run are dropped by the feed, not here.
func (s *LiveService) Submit(matchID string, inputs []models.PlayerInput) error {
	if err := models.CheckInputs(inputs); err != nil {
		return err
	}
	lm, err := s.get(matchID)
	if err != nil {
		return err
	}
	select {
	case <-lm.done:
		return fmt.Errorf("%w: %s", ErrLiveMatchFinished, matchID)
	default:
	}
	for _, in := range inputs {
		select {
		case <-lm.done:
			return fmt.Errorf("%w: %s", ErrLiveMatchFinished, matchID)
		case lm.inputs <- in:
		default:
			return fmt.Errorf("%w: %s", ErrLiveInputsFull, matchID)
		}
	}
	return nil
}

// Abort stops a running match; it is recorded as aborted.
func (s *LiveService) Abort(matchID string) error {
	lm, err := s.get(matchID)
	if err != nil {
		return err
	}
	select {
	case <-lm.done:
		return fmt.Errorf("%w: %s", ErrLiveMatchFinished, matchID)
	default:
	}
	log.Printf("🛑 [LIVE] Abort requested for %s", matchID)
	lm.cancel()
	return nil
}

// Subscribe returns a channel of tick events for a running match. The
// channel closes after the final event. Slow subscribers miss events.
func (s *LiveService) Subscribe(matchID string) (<-chan engine.TickEvent, func(), error) {
	lm, err := s.get(matchID)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan engine.TickEvent, 64)
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.finished {
		return nil, nil, fmt.Errorf("%w: %s", ErrLiveMatchFinished, matchID)
	}
	lm.subscribers[ch] = struct{}{}
	unsubscribe := func() {
		lm.mu.Lock()
		defer lm.mu.Unlock()
		if _, ok := lm.subscribers[ch]; ok {
			delete(lm.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe, nil
}

// Wait blocks until the match has been recorded and returns its record.
func (s *LiveService) Wait(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	lm, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	select {
	case <-lm.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.record, lm.err
}

// Running lists the ids of matches still in progress.
func (s *LiveService) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	return ids
}

// StreamMatchEventsSSE streams tick events of a live match until it ends or
// the client goes away.
func (s *LiveService) StreamMatchEventsSSE(c *fiber.Ctx) error {
	matchID := c.Params("id")
	events, unsubscribe, err := s.Subscribe(matchID)
	if err != nil {
		status := fiber.StatusNotFound
		if errors.Is(err, ErrLiveMatchFinished) {
			status = fiber.StatusGone
		}
		return c.Status(status).JSON(fiber.Map{"error": "live match not available", "details": err.Error()})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					log.Printf("[LIVE] SSE encode error for %s: %v", matchID, err)
					continue
				}
				name := "tick"
				if ev.Final {
					name = "final"
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
				if ev.Final {
					return
				}
			case <-keepalive.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}
