package snapshot

import (
	"encoding/json"
	"time"
)

// Wire types for hub responses. Timestamps come back as unix seconds.

type Strategy struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

type Space struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	About      string     `json:"about"`
	Network    string     `json:"network"`
	Symbol     string     `json:"symbol"`
	Strategies []Strategy `json:"strategies"`
	Members    []string   `json:"members"`
	Admins     []string   `json:"admins"`
}

type ProposalSpace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Proposal struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	Choices     []string      `json:"choices"`
	Start       int64         `json:"start"`
	End         int64         `json:"end"`
	Snapshot    string        `json:"snapshot"`
	State       string        `json:"state"`
	Author      string        `json:"author"`
	Scores      []float64     `json:"scores"`
	ScoresTotal json.Number   `json:"scores_total"`
	Created     int64         `json:"created"`
	Space       ProposalSpace `json:"space"`
}

func (p Proposal) CreatedAt() time.Time { return time.Unix(p.Created, 0).UTC() }
func (p Proposal) StartAt() time.Time   { return time.Unix(p.Start, 0).UTC() }
func (p Proposal) EndAt() time.Time     { return time.Unix(p.End, 0).UTC() }

type Vote struct {
	ID      string          `json:"id"`
	Voter   string          `json:"voter"`
	Choice  json.RawMessage `json:"choice"`
	Created int64           `json:"created"`
}

func (v Vote) CreatedAt() time.Time { return time.Unix(v.Created, 0).UTC() }

type Follow struct {
	ID       string `json:"id"`
	Follower string `json:"follower"`
	Space    struct {
		ID string `json:"id"`
	} `json:"space"`
	Created int64 `json:"created"`
}

func (f Follow) CreatedAt() time.Time { return time.Unix(f.Created, 0).UTC() }

type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	About     string `json:"about"`
	Avatar    string `json:"avatar"`
	Twitter   string `json:"twitter"`
	Lens      string `json:"lens"`
	Farcaster string `json:"farcaster"`
}

type ProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
}

type VotesResponse struct {
	Votes []Vote `json:"votes"`
}

type SpaceResponse struct {
	Space *Space `json:"space"`
}

type FollowsResponse struct {
	Follows []Follow `json:"follows"`
}

type UsersResponse struct {
	Users []UserProfile `json:"users"`
}
