package planner

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/storage/models"
)

// Scheduler manages the periodic feed refreshes and the recurring full
// analysis. Each enabled feed gets its own cron entry at its configured
// interval; a refresh job picks up feeds added or disabled at runtime.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	feedRepo *storage.FeedRepository

	jobs   map[string]cron.EntryID
	jobsMu sync.RWMutex

	defaultInterval time.Duration
	analysisCron    string
}

// NewScheduler creates a scheduler around the planner service.
func NewScheduler(service *Service, feedRepo *storage.FeedRepository, analysisCron string, defaultIntervalMin int) *Scheduler {
	if defaultIntervalMin <= 0 {
		defaultIntervalMin = 15
	}
	return &Scheduler{
		cron:            cron.New(cron.WithSeconds()),
		service:         service,
		feedRepo:        feedRepo,
		jobs:            make(map[string]cron.EntryID),
		defaultInterval: time.Duration(defaultIntervalMin) * time.Minute,
		analysisCron:    analysisCron,
	}
}

// Start schedules every enabled feed, the periodic analysis, and the
// schedule refresher, then starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Println("Starting planner scheduler...")

	feeds, err := s.feedRepo.ListEnabled(ctx)
	if err != nil {
		return err
	}
	for _, feed := range feeds {
		s.ScheduleFeed(feed)
	}

	if s.analysisCron != "" {
		if _, err := s.cron.AddFunc(s.analysisCron, s.runAnalysis); err != nil {
			return err
		}
	}

	// Pick up feeds added or modified after startup.
	s.cron.AddFunc("@every 5m", func() {
		s.refreshSchedules(context.Background())
	})

	s.cron.Start()
	log.Printf("Planner scheduler started with %d feeds", len(feeds))
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	log.Println("Stopping planner scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Planner scheduler stopped")
}

// ScheduleFeed adds or updates a feed's refresh schedule.
func (s *Scheduler) ScheduleFeed(feed models.Feed) {
	if !feed.Enabled {
		s.UnscheduleFeed(feed.ID)
		return
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if existingID, exists := s.jobs[feed.ID]; exists {
		s.cron.Remove(existingID)
		delete(s.jobs, feed.ID)
	}

	spec := intervalToCronSpec(feed.SyncIntervalMin, s.defaultInterval)
	feedID, feedName := feed.ID, feed.Name
	entryID, err := s.cron.AddFunc(spec, func() {
		s.syncFeed(feedID, feedName)
	})
	if err != nil {
		log.Printf("Failed to schedule feed %s: %v", feed.ID, err)
		return
	}

	s.jobs[feed.ID] = entryID
	log.Printf("Scheduled feed %s (%s) %s", feed.ID, feed.Name, spec)
}

// UnscheduleFeed removes a feed from the refresh schedule.
func (s *Scheduler) UnscheduleFeed(feedID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if entryID, exists := s.jobs[feedID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, feedID)
		log.Printf("Unscheduled feed %s", feedID)
	}
}

// TriggerAnalysis runs a full analysis outside the schedule.
func (s *Scheduler) TriggerAnalysis() {
	go s.runAnalysis()
}

func (s *Scheduler) runAnalysis() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.service.RunAnalysis(ctx); err != nil {
		log.Printf("Scheduled analysis failed: %v", err)
	}
}

func (s *Scheduler) syncFeed(feedID, feedName string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.service.SyncFeed(ctx, feedID)
	if err != nil {
		log.Printf("Feed refresh failed for %s (%s): %v", feedID, feedName, err)
		return
	}
	log.Printf("Feed refresh completed for %s (%s): %d events in horizon", feedID, feedName, count)
}

// refreshSchedules reconciles cron entries with the feeds table.
func (s *Scheduler) refreshSchedules(ctx context.Context) {
	feeds, err := s.feedRepo.ListEnabled(ctx)
	if err != nil {
		log.Printf("Failed to refresh feed schedules: %v", err)
		return
	}

	current := make(map[string]bool, len(feeds))
	for _, feed := range feeds {
		current[feed.ID] = true
		s.ScheduleFeed(feed)
	}

	s.jobsMu.Lock()
	for feedID := range s.jobs {
		if !current[feedID] {
			s.cron.Remove(s.jobs[feedID])
			delete(s.jobs, feedID)
			log.Printf("Removed schedule for feed %s (no longer enabled)", feedID)
		}
	}
	s.jobsMu.Unlock()
}

// intervalToCronSpec converts a per-feed minute interval to a cron spec.
func intervalToCronSpec(minutes int, fallback time.Duration) string {
	d := time.Duration(minutes) * time.Minute
	if d < time.Minute {
		d = fallback
	}
	return "@every " + d.String()
}
