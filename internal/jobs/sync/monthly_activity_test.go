package sync

import (
	"strconv"
	"testing"
	"time"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
)

func TestPreviousMonthWindow(t *testing.T) {
	now := time.Date(2026, time.August, 1, 1, 0, 0, 0, time.UTC)
	start, end, year, month := previousMonthWindow(now)

	if !start.Equal(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start: %v", start)
	}
	if !end.Equal(time.Date(2026, time.July, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("end: %v", end)
	}
	if year != "2026" || month != "07" {
		t.Fatalf("labels: %s-%s", year, month)
	}

	// January rolls back into the previous year.
	_, _, year, month = previousMonthWindow(time.Date(2026, time.January, 1, 1, 0, 0, 0, time.UTC))
	if year != "2025" || month != "12" {
		t.Fatalf("year boundary labels: %s-%s", year, month)
	}
}

func TestComputeRowsConservation(t *testing.T) {
	now := time.Now().UTC()
	proposals := []repos.ActivityCount{
		{UserID: "0xalice", Count: 2},
	}
	votes := []repos.ActivityCount{
		{UserID: "0xalice", Count: 1},
		{UserID: "0xbob", Count: 2},
	}

	rows := computeRows(proposals, votes, "2026", "07", now)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	sum := 0.0
	byUser := map[string]string{}
	for _, r := range rows {
		p, err := strconv.ParseFloat(r.ContributionPercent, 64)
		if err != nil {
			t.Fatalf("parse percent %q: %v", r.ContributionPercent, err)
		}
		sum += p
		byUser[r.UserID] = r.ContributionPercent
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Fatalf("percents do not sum to 1: %f", sum)
	}
	if byUser["0xalice"] != "0.600000" || byUser["0xbob"] != "0.400000" {
		t.Fatalf("unexpected shares: %v", byUser)
	}

	for _, r := range rows {
		if r.UserID != "0xalice" {
			continue
		}
		if r.ProposalsCount != 2 || r.VotesCount != 1 {
			t.Fatalf("alice counts: %+v", r)
		}
	}
}

func TestComputeRowsEmpty(t *testing.T) {
	rows := computeRows(nil, nil, "2026", "07", time.Now().UTC())
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestInitialWatermark(t *testing.T) {
	got := initialWatermark(time.Date(2026, time.November, 12, 9, 30, 0, 0, time.UTC))
	want := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
