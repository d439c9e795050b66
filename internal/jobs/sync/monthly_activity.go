package sync

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

const JobTypeMonthlyActivity = "sync.monthly_activity"

// MonthlyActivityJob recomputes the contribution table for the previous
// UTC calendar month. The run is an authoritative full recompute: counts
// and percentages are derived from the raw proposal and vote rows each
// time, so re-running after partial failure converges on the same table.
type MonthlyActivityJob struct {
	deps Deps
}

func NewMonthlyActivityJob(deps Deps) *MonthlyActivityJob {
	return &MonthlyActivityJob{deps: deps}
}

func (j *MonthlyActivityJob) Type() string { return JobTypeMonthlyActivity }

// previousMonthWindow returns the inclusive bounds of the UTC month before
// now, plus its year and month labels.
func previousMonthWindow(now time.Time) (start, end time.Time, year, month string) {
	firstOfCurrent := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	start = firstOfCurrent.AddDate(0, -1, 0)
	end = firstOfCurrent.Add(-time.Second)
	return start, end, start.Format("2006"), start.Format("01")
}

// computeRows merges per-author proposal counts and per-voter vote counts
// into one row per user. A user's contribution percent is their share of
// all activity in the month; the percents sum to 1 whenever any activity
// exists.
func computeRows(proposals, votes []repos.ActivityCount, year, month string, now time.Time) []*types.UserMonthlyActivity {
	type tally struct{ proposals, votes int }
	merged := make(map[string]*tally)
	total := 0
	for _, c := range proposals {
		if merged[c.UserID] == nil {
			merged[c.UserID] = &tally{}
		}
		merged[c.UserID].proposals += c.Count
		total += c.Count
	}
	for _, c := range votes {
		if merged[c.UserID] == nil {
			merged[c.UserID] = &tally{}
		}
		merged[c.UserID].votes += c.Count
		total += c.Count
	}

	rows := make([]*types.UserMonthlyActivity, 0, len(merged))
	for userID, t := range merged {
		percent := 0.0
		if total > 0 {
			percent = float64(t.proposals+t.votes) / float64(total)
		}
		rows = append(rows, &types.UserMonthlyActivity{
			UserID:              userID,
			Year:                year,
			Month:               month,
			ProposalsCount:      t.proposals,
			VotesCount:          t.votes,
			ContributionPercent: fmt.Sprintf("%.6f", percent),
			LastUpdatedAt:       now,
		})
	}
	sort.Slice(rows, func(i, k int) bool { return rows[i].UserID < rows[k].UserID })
	return rows
}

func (j *MonthlyActivityJob) Run(rc *runtime.Context) error {
	now := j.deps.Clock.Now().UTC()
	start, end, year, month := previousMonthWindow(now)

	rc.Progress("aggregate", 10, fmt.Sprintf("aggregating %s-%s", year, month))

	var proposals, votes []repos.ActivityCount
	if err := rc.Step("aggregate", func() error {
		g, gctx := errgroup.WithContext(rc.Ctx)
		g.Go(func() error {
			var err error
			proposals, err = j.deps.Repos.Proposal.CountByAuthorBetween(dbctx.Context{Ctx: gctx}, start, end)
			return err
		})
		g.Go(func() error {
			var err error
			votes, err = j.deps.Repos.Vote.CountByVoterBetween(dbctx.Context{Ctx: gctx}, start, end)
			return err
		})
		return g.Wait()
	}); err != nil {
		rc.Fail("aggregate", err)
		return err
	}

	rows := computeRows(proposals, votes, year, month, now)

	if err := rc.Step("persist", func() error {
		// Authors can show up here before any profile sync has seen them.
		userIDs := make([]string, 0, len(rows))
		for _, r := range rows {
			userIDs = append(userIDs, r.UserID)
		}
		if err := j.deps.Repos.User.EnsureExist(dbctx.Context{Ctx: rc.Ctx}, userIDs, now); err != nil {
			return err
		}
		return j.deps.Repos.MonthlyActivity.UpsertAll(dbctx.Context{Ctx: rc.Ctx}, rows)
	}); err != nil {
		rc.Fail("persist", err)
		return err
	}

	rc.Succeed("done", map[string]any{
		"year":  year,
		"month": month,
		"users": len(rows),
	})
	return nil
}
