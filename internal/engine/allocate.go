package engine

import (
	"regexp"
	"sort"
	"time"
)

// ProposedSlot is one suggested session carved out of a gap for a goal.
type ProposedSlot struct {
	Interval
	GoalID  string `json:"goal_id"`
	Minutes int    `json:"minutes"`
}

// GoalScore reports how much of one goal's weekly target was satisfiable.
type GoalScore struct {
	GoalID           string  `json:"goal_id"`
	RequestedMinutes int     `json:"requested_minutes"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	Score            float64 `json:"score"` // allocated / requested, 0..1
}

// AllocationResult carries the proposed slots plus quality scores, so the
// caller can report goal satisfiability without re-deriving it.
type AllocationResult struct {
	Slots        []ProposedSlot `json:"slots"`
	Scores       []GoalScore    `json:"scores"`
	OverallScore float64        `json:"overall_score"`
}

// AllocateGoals packs goal time into the gap pool. Goals are processed by
// ascending priority rank, list order breaking ties; within a goal the
// earliest-starting eligible gap is always carved first, so identical inputs
// always produce identical output. scheduled holds already-booked minutes
// per category and reduces each goal's remaining need. The input gap slice
// is not modified; the pool is copied for this invocation.
func AllocateGoals(goals []Goal, gaps []Gap, scheduled map[string]int, cfg *Config) (*AllocationResult, error) {
	for i := range goals {
		if err := goals[i].Validate(); err != nil {
			return nil, err
		}
	}

	pool := make([]Interval, 0, len(gaps))
	for _, g := range gaps {
		pool = append(pool, g.Interval)
	}
	sortPool(pool)

	ordered := make([]Goal, len(goals))
	copy(ordered, goals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	result := &AllocationResult{}
	for _, goal := range ordered {
		remaining := goal.TargetMinutes - scheduled[goal.Category]
		if remaining <= 0 {
			// Target already met by scheduled time.
			result.Scores = append(result.Scores, GoalScore{GoalID: goal.ID, Score: 1})
			continue
		}
		requested := remaining

		allocated := 0
		for remaining > 0 {
			idx, session := nextSession(pool, goal, remaining, cfg)
			if idx < 0 {
				break
			}
			gap := pool[idx]
			slot := Interval{Start: gap.Start, End: gap.Start.Add(time.Duration(session) * time.Minute)}
			result.Slots = append(result.Slots, ProposedSlot{
				Interval: slot,
				GoalID:   goal.ID,
				Minutes:  session,
			})
			remaining -= session
			allocated += session

			// Carving from the gap's start leaves at most one residual.
			if slot.End.Before(gap.End) {
				pool[idx] = Interval{Start: slot.End, End: gap.End}
			} else {
				pool = append(pool[:idx], pool[idx+1:]...)
			}
		}

		result.Scores = append(result.Scores, GoalScore{
			GoalID:           goal.ID,
			RequestedMinutes: requested,
			AllocatedMinutes: allocated,
			Score:            float64(allocated) / float64(requested),
		})
	}

	result.OverallScore = overallScore(ordered, result.Scores)
	return result, nil
}

// nextSession finds the earliest-starting gap able to host a session for the
// goal and returns its pool index and the session length in minutes. Gaps
// intersecting the goal's preferred time-of-day window are considered first;
// when none intersect, the whole pool is eligible so a goal with a
// preference still receives time rather than nothing. The pool is kept
// sorted by start, so the first fitting candidate is the earliest. Returns
// -1 when no gap can host a session.
func nextSession(pool []Interval, goal Goal, remaining int, cfg *Config) (int, int) {
	candidates := preferredIndexes(pool, goal, cfg)
	if candidates == nil {
		candidates = make([]int, len(pool))
		for i := range pool {
			candidates[i] = i
		}
	}

	for _, i := range candidates {
		session := sessionFor(pool[i], goal, remaining)
		if session > 0 && session >= goal.MinMinutes {
			return i, session
		}
	}
	return -1, 0
}

// sessionFor computes the session length carved from one gap: the remaining
// need, capped by the goal's maximum and by the gap itself.
func sessionFor(gap Interval, goal Goal, remaining int) int {
	session := remaining
	if goal.MaxMinutes > 0 && session > goal.MaxMinutes {
		session = goal.MaxMinutes
	}
	if avail := gap.Minutes(); session > avail {
		session = avail
	}
	return session
}

// preferredIndexes returns the pool indexes of gaps intersecting the goal's
// preferred time-of-day hours on their own day, or nil when the goal has no
// preference or nothing intersects it.
func preferredIndexes(pool []Interval, goal Goal, cfg *Config) []int {
	hours, ok := cfg.hourRangeFor(goal.Preferred)
	if !ok {
		return nil
	}
	var out []int
	for i, iv := range pool {
		pref := dayWindow(iv.Start, hours.Start, hours.End)
		if iv.Overlaps(pref) {
			out = append(out, i)
		}
	}
	return out
}

func sortPool(pool []Interval) {
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].Start.Before(pool[j].Start)
	})
}

// overallScore is the priority-weighted average of per-goal scores, a rank
// of r contributing weight 1/(1+r).
func overallScore(goals []Goal, scores []GoalScore) float64 {
	byID := make(map[string]float64, len(scores))
	for _, s := range scores {
		byID[s.GoalID] = s.Score
	}
	var weighted, total float64
	for _, g := range goals {
		w := 1 / float64(1+g.Priority)
		weighted += w * byID[g.ID]
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// MovableEventIDs returns the IDs of busy events whose title matches any of
// the configured movable patterns. The allocator never decides which movable
// events to relocate; the caller picks from this set and passes its choice
// to Analyze, which recomputes gaps with those events lifted out.
func MovableEventIDs(events []Event, patterns []string) ([]string, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &ConfigError{Field: "movable_patterns", Reason: err.Error()}
		}
		res = append(res, re)
	}
	var ids []string
	for _, e := range events {
		if !e.CalendarType.Busy() {
			continue
		}
		for _, re := range res {
			if re.MatchString(e.Summary) {
				ids = append(ids, e.ID)
				break
			}
		}
	}
	return ids, nil
}
