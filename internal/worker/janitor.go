package worker

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/metrics"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/service"
)

// RoomEvictor is the part of the engine the janitor drives.
type RoomEvictor interface {
	EvictIdleRooms(now time.Time) []string
	Stats() service.Stats
}

// Janitor periodically evicts idle rooms and refreshes the live-state gauges.
type Janitor struct {
	evictor  RoomEvictor
	schedule string
	cron     *cron.Cron
	log      *logrus.Entry
	now      func() time.Time
}

// NewJanitor creates a janitor running on schedule, any expression robfig/cron accepts
// (for example "@every 1m" or "*/5 * * * *").
func NewJanitor(evictor RoomEvictor, schedule string, logger *logrus.Logger) *Janitor {
	if evictor == nil {
		panic("RoomEvictor cannot be nil for Janitor")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Janitor{
		evictor:  evictor,
		schedule: schedule,
		cron:     cron.New(),
		log:      logger.WithField("component", "janitor"),
		now:      time.Now,
	}
}

// Start registers the job and starts the scheduler in its own goroutine.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.RunOnce); err != nil {
		return fmt.Errorf("failed to schedule janitor %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.log.WithField("schedule", j.schedule).Info("Janitor started")
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info("Janitor stopped")
}

// RunOnce performs a single eviction pass.
func (j *Janitor) RunOnce() {
	evicted := j.evictor.EvictIdleRooms(j.now())
	if len(evicted) > 0 {
		metrics.RoomsEvicted(len(evicted))
		j.log.WithField("rooms", evicted).Info("Idle rooms evicted")
	}
	stats := j.evictor.Stats()
	metrics.SetLiveState(stats.Rooms, stats.PrivateRooms, stats.Sessions)
	j.log.WithFields(logrus.Fields{
		"rooms":         stats.Rooms,
		"private_rooms": stats.PrivateRooms,
		"sessions":      stats.Sessions,
	}).Debug("Janitor pass complete")
}
