package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	StatusUp   = "up"
	StatusDown = "down"

	probeTimeout = 5 * time.Second
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker probes the store on a cron schedule and serves the last result.
type Checker struct {
	pinger Pinger
	logger zerolog.Logger
	cron   *cron.Cron

	mu   sync.RWMutex
	last Status
}

func NewChecker(pinger Pinger, logger zerolog.Logger) *Checker {
	return &Checker{
		pinger: pinger,
		logger: logger,
		last:   Status{Status: StatusDown, Error: "not checked yet"},
	}
}

// Start runs one probe immediately and then on every tick of schedule.
func (c *Checker) Start(schedule string) error {
	c.Check(context.Background())

	c.cron = cron.New()
	_, err := c.cron.AddFunc(schedule, func() {
		c.Check(context.Background())
	})
	if err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running probe to finish.
func (c *Checker) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

func (c *Checker) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := Status{Status: StatusUp, CheckedAt: time.Now().UTC()}
	if err := c.pinger.Ping(ctx); err != nil {
		status.Status = StatusDown
		status.Error = err.Error()
	}

	c.mu.Lock()
	previous := c.last.Status
	c.last = status
	c.mu.Unlock()

	if status.Status != previous {
		if status.Status == StatusDown {
			c.logger.Error().Str("error", status.Error).Msg("store health check failed")
		} else {
			c.logger.Info().Msg("store is healthy")
		}
	}
	return status
}

func (c *Checker) Last() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// HandleReady reports the last probe result: 200 when the store is up, 503 otherwise.
func (c *Checker) HandleReady(w http.ResponseWriter, _ *http.Request) {
	status := c.Last()
	code := http.StatusOK
	if status.Status != StatusUp {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth reports process liveness only.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}
