package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"lewa-type-backend/middleware"
)

// DefaultLivePeriod is how often each live leaderboard is re-polled.
const DefaultLivePeriod = 3 * time.Second

// LiveRankingService fans periodic ranking snapshots out to SSE
// subscribers. One broadcaster goroutine runs per competition with at
// least one open stream; it is torn down when the last subscriber leaves,
// so an abandoned competition costs nothing.
type LiveRankingService struct {
	Rankings *RankingService
	Period   time.Duration

	mu    sync.Mutex
	feeds map[uint]*liveFeed
}

type liveFeed struct {
	subs map[chan []byte]struct{}
	stop chan struct{}
}

func NewLiveRankingService(rankings *RankingService, period time.Duration) *LiveRankingService {
	if period <= 0 {
		period = DefaultLivePeriod
	}
	return &LiveRankingService{
		Rankings: rankings,
		Period:   period,
		feeds:    make(map[uint]*liveFeed),
	}
}

// Subscribe registers a new stream for compID and returns its event
// channel plus a cancel func. The first subscriber starts the
// broadcaster.
func (s *LiveRankingService) Subscribe(compID uint) (<-chan []byte, func()) {
	ch := make(chan []byte, 4)

	s.mu.Lock()
	feed, ok := s.feeds[compID]
	if !ok {
		feed = &liveFeed{
			subs: make(map[chan []byte]struct{}),
			stop: make(chan struct{}),
		}
		s.feeds[compID] = feed
		go s.broadcast(compID, feed)
	}
	feed.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := feed.subs[ch]; !ok {
			return
		}
		delete(feed.subs, ch)
		close(ch)
		if len(feed.subs) == 0 {
			close(feed.stop)
			delete(s.feeds, compID)
		}
	}
	return ch, cancel
}

// subscriberCount is a test hook.
func (s *LiveRankingService) subscriberCount(compID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[compID]
	if !ok {
		return 0
	}
	return len(feed.subs)
}

func (s *LiveRankingService) broadcast(compID uint, feed *liveFeed) {
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	for {
		select {
		case <-feed.stop:
			return
		case <-ticker.C:
			entries, err := s.Rankings.Snapshot(compID, RankingLimit)
			if err != nil {
				log.Printf("[LIVE] snapshot for %d failed: %v", compID, err)
				continue
			}
			payload, err := json.Marshal(fiber.Map{"rankings": entries})
			if err != nil {
				continue
			}

			s.mu.Lock()
			for ch := range feed.subs {
				// Slow consumers are skipped, never waited on.
				select {
				case ch <- payload:
				default:
				}
			}
			s.mu.Unlock()
		}
	}
}

// StreamLive serves GET /competitions/:id/live as a one-way SSE stream,
// one rankings event per tick until the client disconnects.
func (s *LiveRankingService) StreamLive(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	comp, err := s.Rankings.Memberships.getCompetition(uint(compID))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	}
	if !comp.LiveRanking {
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	}
	if !s.Rankings.Memberships.canView(comp, middleware.CurrentUserID(c)) {
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	events, cancel := s.Subscribe(comp.ID)
	ctx := c.Context()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		// Initial keepalive so proxies flush headers immediately.
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case payload, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected.
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}
