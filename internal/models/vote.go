package models

import "fmt"

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// ParseVoteType converts raw input into a VoteType.
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteUp, VoteDown:
		return VoteType(s), nil
	default:
		return "", fmt.Errorf("vote type must be %q or %q, got %q", VoteUp, VoteDown, s)
	}
}

// VoteRequest defines the request body for voting on a post
type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required,oneof=up down"`
}

// CountVotes derives the tally from individual vote records.
func CountVotes(userVotes []UserVote) VoteTally {
	var t VoteTally
	for _, v := range userVotes {
		switch v.VoteType {
		case VoteUp:
			t.Up++
		case VoteDown:
			t.Down++
		}
	}
	return t
}

// VoteOf returns the active vote of user on the post, if any.
func (p *Post) VoteOf(user uint) (VoteType, bool) {
	for _, v := range p.UserVotes {
		if v.User == user {
			return v.VoteType, true
		}
	}
	return "", false
}
