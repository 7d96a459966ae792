// Package planner orchestrates an analysis cycle: it loads configuration and
// stored goals and rules, fetches every enabled feed, runs the engine over
// the merged event set, persists a run summary, and broadcasts the results.
// The engine stays pure; everything stateful lives here.
package planner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/weekwise/backend/internal/config"
	"github.com/weekwise/backend/internal/engine"
	"github.com/weekwise/backend/internal/provider"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/storage/models"
	"github.com/weekwise/backend/internal/websocket"
)

// Service runs analysis cycles and records user decisions.
type Service struct {
	cfg          *config.Config
	feedRepo     *storage.FeedRepository
	goalRepo     *storage.GoalRepository
	ruleRepo     *storage.RuleRepository
	decisionRepo *storage.DecisionRepository
	runRepo      *storage.RunRepository
	fetcher      *provider.Fetcher
	broadcaster  *websocket.EventBroadcaster

	mu         sync.RWMutex
	lastReport *Report
}

// Report is the full outcome of one analysis cycle: the persisted summary
// plus the engine result the summary was computed from.
type Report struct {
	Run      models.AnalysisRun     `json:"run"`
	Result   *engine.Result         `json:"result"`
	Failures []provider.FeedFailure `json:"failures,omitempty"`
}

// NewService creates a new planner service.
func NewService(
	cfg *config.Config,
	feedRepo *storage.FeedRepository,
	goalRepo *storage.GoalRepository,
	ruleRepo *storage.RuleRepository,
	decisionRepo *storage.DecisionRepository,
	runRepo *storage.RunRepository,
	hub *websocket.Hub,
) *Service {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Service{
		cfg:          cfg,
		feedRepo:     feedRepo,
		goalRepo:     goalRepo,
		ruleRepo:     ruleRepo,
		decisionRepo: decisionRepo,
		runRepo:      runRepo,
		fetcher:      provider.NewFetcher(),
		broadcaster:  broadcaster,
	}
}

// RunAnalysis fetches all enabled feeds, runs the engine over the configured
// horizon, persists a run summary, and broadcasts the findings. Feed
// failures degrade the result instead of aborting it.
func (s *Service) RunAnalysis(ctx context.Context) (*Report, error) {
	window, err := s.analysisRange()
	if err != nil {
		return nil, err
	}

	feeds, err := s.feedRepo.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}

	providerFeeds := make([]provider.Feed, len(feeds))
	for i, f := range feeds {
		providerFeeds[i] = f.ToProvider()
	}
	fetched := s.fetcher.FetchAll(ctx, providerFeeds, window)
	s.recordFeedOutcomes(ctx, feeds, fetched)

	engineCfg, err := s.engineConfig(ctx)
	if err != nil {
		return nil, err
	}

	links, err := s.decisionRepo.ListCoverageLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing coverage links: %w", err)
	}
	knownLinks := make([]engine.CoverageLink, len(links))
	for i, l := range links {
		knownLinks[i] = l.ToEngine()
	}

	result, err := engine.Analyze(engine.Input{
		Events:     fetched.Events,
		Range:      window,
		Config:     engineCfg,
		KnownLinks: knownLinks,
	})
	if err != nil {
		return nil, fmt.Errorf("running analysis: %w", err)
	}

	run := s.summarize(window, fetched, result)
	if err := s.runRepo.Create(ctx, &run); err != nil {
		return nil, fmt.Errorf("saving analysis run: %w", err)
	}

	report := &Report{Run: run, Result: result, Failures: fetched.Failures}
	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	s.broadcastReport(ctx, report)
	log.Printf("Analysis run %s: %d events, %d conflicts, %d gaps, %d slots, score %.2f",
		run.ID, run.EventCount, run.GroupCount, run.GapCount, run.SlotCount, run.OverallScore)

	return report, nil
}

// LatestReport returns the most recent in-memory report, or nil before the
// first analysis of this process.
func (s *Service) LatestReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// SyncFeed fetches a single feed to validate it and records the outcome.
// The event count over the analysis horizon is returned.
func (s *Service) SyncFeed(ctx context.Context, feedID string) (int, error) {
	feed, err := s.feedRepo.GetByID(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("getting feed: %w", err)
	}
	if feed == nil {
		return 0, fmt.Errorf("feed not found: %s", feedID)
	}

	window, err := s.analysisRange()
	if err != nil {
		return 0, err
	}

	if err := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusSyncing, nil); err != nil {
		log.Printf("Failed to update sync status for feed %s: %v", feed.ID, err)
	}

	events, err := s.fetcher.FetchFeed(ctx, feed.ToProvider(), window)
	if err != nil {
		errMsg := err.Error()
		if uerr := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusError, &errMsg); uerr != nil {
			log.Printf("Failed to update sync status for feed %s: %v", feed.ID, uerr)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastFeedSyncError(feed.ID, feed.Name, err)
		}
		return 0, err
	}

	if err := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusSuccess, nil); err != nil {
		log.Printf("Failed to update sync status for feed %s: %v", feed.ID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastFeedSyncCompleted(feed.ID, feed.Name, len(events))
	}
	return len(events), nil
}

// DecideConflict records the user's attendance choice for one overlap group
// from the latest report. The proportional time split is computed from the
// group's actual intervals at decision time.
func (s *Service) DecideConflict(ctx context.Context, groupKey string, chosenIDs []string) (*models.ConflictDecision, error) {
	report := s.LatestReport()
	if report == nil || report.Result == nil {
		return nil, fmt.Errorf("no analysis available; run one first")
	}

	var group *engine.OverlapGroup
	for i := range report.Result.Groups {
		if report.Result.Groups[i].Key() == groupKey {
			group = &report.Result.Groups[i]
			break
		}
	}
	if group == nil {
		return nil, fmt.Errorf("overlap group not found: %s", groupKey)
	}

	members := make(map[string]bool, len(group.Events))
	for _, e := range group.Events {
		members[e.ID] = true
	}
	for _, id := range chosenIDs {
		if !members[id] {
			return nil, fmt.Errorf("chosen event %s is not in group %s", id, groupKey)
		}
	}

	decision := &models.ConflictDecision{
		GroupKey:  groupKey,
		SpanStart: group.Span.Start,
		SpanEnd:   group.Span.End,
		ChosenIDs: chosenIDs,
		Split:     engine.AttendanceSplit(*group, chosenIDs),
	}
	if err := s.decisionRepo.SaveConflictDecision(ctx, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// AcceptCoverage records that the user created (or will create) a coverage
// event for a missing-coverage proposal, so later runs treat the trigger as
// covered and watch the link for orphaning.
func (s *Service) AcceptCoverage(ctx context.Context, ruleID, triggerEventID, coverageEventID string) (*models.CoverageLink, error) {
	if ruleID == "" || triggerEventID == "" || coverageEventID == "" {
		return nil, fmt.Errorf("rule, trigger, and coverage event IDs are all required")
	}
	link := &models.CoverageLink{
		RuleID:          ruleID,
		TriggerEventID:  triggerEventID,
		CoverageEventID: coverageEventID,
	}
	if err := s.decisionRepo.SaveCoverageLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// analysisRange builds the horizon window: start of today in the configured
// timezone through HorizonDays later.
func (s *Service) analysisRange() (engine.Interval, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return engine.Interval{}, err
	}
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return engine.NewInterval(start, start.AddDate(0, 0, s.cfg.HorizonDays))
}

// engineConfig merges the file config with the stored goals and rules.
func (s *Service) engineConfig(ctx context.Context) (engine.Config, error) {
	engineCfg, err := s.cfg.EngineConfig()
	if err != nil {
		return engine.Config{}, err
	}

	goals, err := s.goalRepo.ListEnabled(ctx)
	if err != nil {
		return engine.Config{}, fmt.Errorf("listing goals: %w", err)
	}
	for _, g := range goals {
		engineCfg.Goals = append(engineCfg.Goals, g.ToEngine())
	}

	rules, err := s.ruleRepo.ListEnabled(ctx)
	if err != nil {
		return engine.Config{}, fmt.Errorf("listing rules: %w", err)
	}
	for _, r := range rules {
		engineCfg.Rules = append(engineCfg.Rules, r.ToEngine())
	}

	return engineCfg, nil
}

// recordFeedOutcomes writes per-feed sync status after a bulk fetch and
// broadcasts each outcome.
func (s *Service) recordFeedOutcomes(ctx context.Context, feeds []models.Feed, fetched provider.FetchResult) {
	failed := make(map[string]string, len(fetched.Failures))
	for _, f := range fetched.Failures {
		failed[f.FeedID] = f.Error
	}

	for _, feed := range feeds {
		if msg, ok := failed[feed.ID]; ok {
			if err := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusError, &msg); err != nil {
				log.Printf("Failed to update sync status for feed %s: %v", feed.ID, err)
			}
			if s.broadcaster != nil {
				s.broadcaster.BroadcastFeedSyncError(feed.ID, feed.Name, fmt.Errorf("%s", msg))
			}
			continue
		}

		count := 0
		for _, e := range fetched.Events {
			if e.AccountID == feed.AccountID && e.CalendarID == feed.CalendarID {
				count++
			}
		}
		if err := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusSuccess, nil); err != nil {
			log.Printf("Failed to update sync status for feed %s: %v", feed.ID, err)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastFeedSyncCompleted(feed.ID, feed.Name, count)
		}
	}
}

func (s *Service) summarize(window engine.Interval, fetched provider.FetchResult, result *engine.Result) models.AnalysisRun {
	gapCount := 0
	for _, day := range result.Days {
		gapCount += len(day.Gaps)
	}
	slotCount := 0
	overall := 0.0
	if result.Allocation != nil {
		slotCount = len(result.Allocation.Slots)
		overall = result.Allocation.OverallScore
	}
	var failedIDs []string
	for _, f := range fetched.Failures {
		failedIDs = append(failedIDs, f.FeedID)
	}

	return models.AnalysisRun{
		RangeStart:   window.Start,
		RangeEnd:     window.End,
		EventCount:   len(fetched.Events),
		GroupCount:   len(result.Groups),
		GapCount:     gapCount,
		SlotCount:    slotCount,
		OverallScore: overall,
		FailedFeeds:  failedIDs,
	}
}

// broadcastReport pushes the run summary plus every undecided conflict and
// every coverage proposal to connected clients.
func (s *Service) broadcastReport(ctx context.Context, report *Report) {
	if s.broadcaster == nil {
		return
	}

	missing := 0
	for _, p := range report.Result.Coverage {
		if p.Status == engine.CoverageMissing {
			missing++
		}
		if p.Status != engine.CoverageSatisfied {
			s.broadcaster.BroadcastCoverage(p)
		}
	}

	for _, group := range report.Result.Groups {
		key := group.Key()
		decision, err := s.decisionRepo.GetConflictDecision(ctx, key)
		if err != nil {
			log.Printf("Failed to look up decision for group %s: %v", key, err)
		}
		if decision != nil {
			continue
		}
		s.broadcaster.BroadcastConflict(key, group)
	}

	s.broadcaster.BroadcastAnalysisCompleted(websocket.AnalysisCompletedPayload{
		RunID:         report.Run.ID,
		RangeStart:    report.Run.RangeStart,
		RangeEnd:      report.Run.RangeEnd,
		GroupCount:    report.Run.GroupCount,
		GapCount:      report.Run.GapCount,
		SlotCount:     report.Run.SlotCount,
		MissingCover:  missing,
		OverallScore:  report.Run.OverallScore,
		FailedFeedIDs: report.Run.FailedFeeds,
	})
}
