package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedSpace(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.Space {
	tb.Helper()
	s := &types.Space{
		ID:            id,
		Name:          id,
		Network:       "1",
		Symbol:        "GOV",
		Strategies:    datatypes.JSON([]byte("[]")),
		LastIndexedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed space: %v", err)
	}
	return s
}

func SeedProposal(tb testing.TB, ctx context.Context, tx *gorm.DB, spaceID, id string, created time.Time) *types.Proposal {
	tb.Helper()
	p := &types.Proposal{
		ID:        id,
		SpaceID:   spaceID,
		Title:     "proposal " + id,
		Choices:   datatypes.JSON([]byte(`["For","Against"]`)),
		Start:     created,
		End:       created.Add(72 * time.Hour),
		State:     "active",
		Author:    "0xauthor",
		Scores:    datatypes.JSON([]byte("[]")),
		CreatedAt: created,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed proposal: %v", err)
	}
	return p
}

func SeedVote(tb testing.TB, ctx context.Context, tx *gorm.DB, proposalID, voter string, created time.Time) *types.Vote {
	tb.Helper()
	v := &types.Vote{
		ID:         fmt.Sprintf("vote-%s-%s", proposalID, voter),
		Voter:      voter,
		ProposalID: proposalID,
		Choice:     datatypes.JSON([]byte("1")),
		Created:    created,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed vote: %v", err)
	}
	return v
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:            id,
		LastIndexedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}
