package engine

import "testing"

func TestFindGaps_MergesAdjacentBusy(t *testing.T) {
	window := iv(6, 0, 22, 0)
	events := []Event{
		busyEvent("a", 9, 0, 9, 30),
		busyEvent("b", 9, 20, 10, 0),
	}

	result := FindGaps(window, events, 30)

	if len(result.Busy) != 1 {
		t.Fatalf("expected 1 merged run, got %d", len(result.Busy))
	}
	if !result.Busy[0].Start.Equal(at(9, 0)) || !result.Busy[0].End.Equal(at(10, 0)) {
		t.Errorf("merged run = %v, want 09:00-10:00", result.Busy[0])
	}

	if len(result.Gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(result.Gaps))
	}
	if !result.Gaps[0].Start.Equal(at(6, 0)) || !result.Gaps[0].End.Equal(at(9, 0)) {
		t.Errorf("first gap = %v, want 06:00-09:00", result.Gaps[0].Interval)
	}
	if !result.Gaps[1].Start.Equal(at(10, 0)) || !result.Gaps[1].End.Equal(at(22, 0)) {
		t.Errorf("second gap = %v, want 10:00-22:00", result.Gaps[1].Interval)
	}
}

func TestFindGaps_FiltersShortGaps(t *testing.T) {
	window := iv(9, 0, 12, 0)
	events := []Event{
		busyEvent("a", 9, 0, 10, 0),
		busyEvent("b", 10, 20, 12, 0),
	}
	// The 20-minute hole between a and b is below the minimum.
	result := FindGaps(window, events, 30)
	if len(result.Gaps) != 0 {
		t.Errorf("expected no gaps, got %v", result.Gaps)
	}
}

func TestFindGaps_ClipsBoundaryEvents(t *testing.T) {
	window := iv(6, 0, 22, 0)
	events := []Event{
		busyEvent("early", 5, 0, 7, 0),   // straddles the start
		busyEvent("night", 21, 0, 23, 0), // straddles the end
		busyEvent("outside", 23, 0, 23, 30),
	}

	result := FindGaps(window, events, 30)

	if len(result.Busy) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(result.Busy))
	}
	if !result.Busy[0].Start.Equal(at(6, 0)) {
		t.Errorf("straddling event must be clipped to window start, got %v", result.Busy[0])
	}
	if !result.Busy[1].End.Equal(at(22, 0)) {
		t.Errorf("straddling event must be clipped to window end, got %v", result.Busy[1])
	}
	if len(result.Gaps) != 1 || !result.Gaps[0].Start.Equal(at(7, 0)) || !result.Gaps[0].End.Equal(at(21, 0)) {
		t.Errorf("expected single 07:00-21:00 gap, got %v", result.Gaps)
	}
}

func TestFindGaps_IgnoresInformationalEvents(t *testing.T) {
	window := iv(6, 0, 22, 0)
	holiday := busyEvent("holiday", 0, 0, 23, 59)
	holiday.CalendarType = CalendarReference

	result := FindGaps(window, []Event{holiday}, 30)
	if len(result.Gaps) != 1 || result.Gaps[0].Interval != window {
		t.Errorf("reference events must not block gaps, got %v", result.Gaps)
	}
}

// Gaps plus merged busy runs must exactly tile the window: no holes, no
// overlaps, segments in order.
func TestFindGaps_ReconstructsWindow(t *testing.T) {
	window := iv(6, 0, 22, 0)
	events := []Event{
		busyEvent("a", 5, 30, 6, 45),
		busyEvent("b", 9, 0, 9, 30),
		busyEvent("c", 9, 20, 10, 0),
		busyEvent("d", 14, 0, 15, 0),
		busyEvent("e", 21, 30, 22, 30),
	}

	// Minimum of 1 so every complement segment is returned.
	result := FindGaps(window, events, 1)

	var segments []Interval
	segments = append(segments, result.Busy...)
	for _, g := range result.Gaps {
		segments = append(segments, g.Interval)
	}
	// Order by start; runs and gaps are each sorted and interleave.
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			if segments[j].Start.Before(segments[i].Start) {
				segments[i], segments[j] = segments[j], segments[i]
			}
		}
	}

	cursor := window.Start
	for _, seg := range segments {
		if !seg.Start.Equal(cursor) {
			t.Fatalf("segment starts at %v, cursor at %v: tiling broken", seg.Start, cursor)
		}
		cursor = seg.End
	}
	if !cursor.Equal(window.End) {
		t.Fatalf("tiling ends at %v, want window end %v", cursor, window.End)
	}
}

func TestFindGaps_EmptyBusySet(t *testing.T) {
	window := iv(6, 0, 22, 0)
	result := FindGaps(window, nil, 30)
	if len(result.Gaps) != 1 || result.Gaps[0].Interval != window {
		t.Errorf("empty busy set should yield the whole window, got %v", result.Gaps)
	}
	if result.Gaps[0].DurationMinutes != 16*60 {
		t.Errorf("duration = %d, want %d", result.Gaps[0].DurationMinutes, 16*60)
	}
}
