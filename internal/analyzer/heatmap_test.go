package analyzer

import (
	"testing"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

func TestHeatmap_EnumerationOrder(t *testing.T) {
	records := append(
		mix(0, 0, 4, feedback.Engagement),
		mix(3, 1, 0, feedback.Trainer, feedback.Engagement)...,
	)

	cells := Heatmap(records)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].Category != feedback.Trainer || cells[1].Category != feedback.Engagement {
		t.Errorf("expected trainer then engagement, got %s, %s", cells[0].Category, cells[1].Category)
	}

	tr := cells[0]
	if tr.Total != 4 || !approx(tr.Positive, 75) || !approx(tr.Neutral, 25) {
		t.Errorf("unexpected trainer cell: %+v", tr)
	}
	// 75 + 12.5
	if !approx(tr.HeatScore, 87.5) {
		t.Errorf("expected trainer heat score 87.5, got %f", tr.HeatScore)
	}
	if tr.DisplayName != "Trainer" {
		t.Errorf("expected display name Trainer, got %q", tr.DisplayName)
	}

	en := cells[1]
	if en.Total != 8 {
		t.Errorf("expected 8 engagement records, got %d", en.Total)
	}
	// 37.5 - 25 + 6.25
	if !approx(en.HeatScore, 18.75) {
		t.Errorf("expected engagement heat score 18.75, got %f", en.HeatScore)
	}
}

func TestHeatmap_ClampsAtZero(t *testing.T) {
	cells := Heatmap(mix(0, 0, 2, feedback.Infrastructure))
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(cells))
	}
	if cells[0].HeatScore != 0 {
		t.Errorf("expected all-negative category clamped to 0, got %f", cells[0].HeatScore)
	}
}

func TestHeatmap_Empty(t *testing.T) {
	if cells := Heatmap(nil); len(cells) != 0 {
		t.Errorf("expected no cells, got %d", len(cells))
	}
}
