package sync

import (
	"context"
	"fmt"

	"github.com/daofeed/daofeed-backend/internal/snapshot"
)

// hubStub scripts hub responses per query. Unscripted queries fail, so a
// test that forgot to stub a path fails loudly instead of syncing nothing.
type hubStub struct {
	proposalPages []snapshot.ProposalsResponse
	proposalCalls int
	votes         map[string]snapshot.VotesResponse
	space         *snapshot.Space
	follows       []snapshot.Follow
	users         []snapshot.UserProfile

	failVotes    bool
	failVotesFor string
	onVotes      func()
}

func (h *hubStub) Query(_ context.Context, query string, variables map[string]any, out any) error {
	switch query {
	case snapshot.QueryProposalsSince:
		resp := out.(*snapshot.ProposalsResponse)
		if h.proposalCalls < len(h.proposalPages) {
			*resp = h.proposalPages[h.proposalCalls]
		} else {
			*resp = snapshot.ProposalsResponse{}
		}
		h.proposalCalls++
		return nil
	case snapshot.QueryProposalVotes:
		if h.onVotes != nil {
			h.onVotes()
		}
		proposal := fmt.Sprint(variables["proposal"])
		if h.failVotes || (h.failVotesFor != "" && proposal == h.failVotesFor) {
			return fmt.Errorf("scripted vote failure")
		}
		resp := out.(*snapshot.VotesResponse)
		*resp = h.votes[proposal]
		return nil
	case snapshot.QuerySpace:
		resp := out.(*snapshot.SpaceResponse)
		*resp = snapshot.SpaceResponse{Space: h.space}
		return nil
	case snapshot.QuerySpaceFollows:
		resp := out.(*snapshot.FollowsResponse)
		*resp = snapshot.FollowsResponse{Follows: h.follows}
		return nil
	case snapshot.QueryUsers:
		resp := out.(*snapshot.UsersResponse)
		*resp = snapshot.UsersResponse{Users: h.users}
		return nil
	}
	return fmt.Errorf("unscripted query")
}
