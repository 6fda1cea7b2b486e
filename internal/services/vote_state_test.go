package services

import (
	"reflect"
	"testing"

	"github.com/anonto42/timeline-globe/backend/internal/models"
)

func TestApplyVoteTransitions(t *testing.T) {
	const user = 7
	other := models.UserVote{User: 3, VoteType: models.VoteDown}

	cases := []struct {
		name      string
		existing  []models.UserVote
		tally     models.VoteTally
		vote      models.VoteType
		from, to  VoteState
		wantTally models.VoteTally
	}{
		{"no vote then up", nil, models.VoteTally{Down: 1}, models.VoteUp, NoVote, VotedUp, models.VoteTally{Up: 1, Down: 1}},
		{"no vote then down", nil, models.VoteTally{Down: 1}, models.VoteDown, NoVote, VotedDown, models.VoteTally{Down: 2}},
		{"up then up withdraws", []models.UserVote{{User: user, VoteType: models.VoteUp}}, models.VoteTally{Up: 1, Down: 1}, models.VoteUp, VotedUp, NoVote, models.VoteTally{Down: 1}},
		{"up then down switches", []models.UserVote{{User: user, VoteType: models.VoteUp}}, models.VoteTally{Up: 1, Down: 1}, models.VoteDown, VotedUp, VotedDown, models.VoteTally{Down: 2}},
		{"down then down withdraws", []models.UserVote{{User: user, VoteType: models.VoteDown}}, models.VoteTally{Down: 2}, models.VoteDown, VotedDown, NoVote, models.VoteTally{Down: 1}},
		{"down then up switches", []models.UserVote{{User: user, VoteType: models.VoteDown}}, models.VoteTally{Down: 2}, models.VoteUp, VotedDown, VotedUp, models.VoteTally{Up: 1, Down: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			existing := append([]models.UserVote{other}, tc.existing...)
			tr := ApplyVote(tc.tally, existing, user, tc.vote)
			if tr.From != tc.from || tr.To != tc.to {
				t.Fatalf("transition %s -> %s, want %s -> %s", tr.From, tr.To, tc.from, tc.to)
			}
			if tr.Votes != tc.wantTally {
				t.Fatalf("tally = %+v, want %+v", tr.Votes, tc.wantTally)
			}
			if got := models.CountVotes(tr.UserVotes); got != tr.Votes {
				t.Fatalf("records %+v disagree with tally %+v", tr.UserVotes, tr.Votes)
			}
			if tr.UserVotes[0] != other {
				t.Fatalf("other users' votes must be kept in place: %+v", tr.UserVotes)
			}
		})
	}
}

func TestApplyVoteSwitchKeepsPosition(t *testing.T) {
	votes := []models.UserVote{
		{User: 1, VoteType: models.VoteUp},
		{User: 2, VoteType: models.VoteDown},
		{User: 3, VoteType: models.VoteUp},
	}
	tr := ApplyVote(models.VoteTally{Up: 2, Down: 1}, votes, 2, models.VoteUp)
	want := []models.UserVote{
		{User: 1, VoteType: models.VoteUp},
		{User: 2, VoteType: models.VoteUp},
		{User: 3, VoteType: models.VoteUp},
	}
	if !reflect.DeepEqual(tr.UserVotes, want) {
		t.Fatalf("UserVotes = %+v, want %+v", tr.UserVotes, want)
	}
	if votes[1].VoteType != models.VoteDown {
		t.Fatal("input slice must not be modified")
	}
}

func TestApplyVoteCollapsesDuplicateRecords(t *testing.T) {
	votes := []models.UserVote{
		{User: 5, VoteType: models.VoteUp},
		{User: 5, VoteType: models.VoteUp},
		{User: 6, VoteType: models.VoteDown},
	}
	tr := ApplyVote(models.VoteTally{Up: 2, Down: 1}, votes, 5, models.VoteDown)
	want := []models.UserVote{
		{User: 5, VoteType: models.VoteDown},
		{User: 6, VoteType: models.VoteDown},
	}
	if !reflect.DeepEqual(tr.UserVotes, want) {
		t.Fatalf("UserVotes = %+v, want %+v", tr.UserVotes, want)
	}
	if tr.Votes != (models.VoteTally{Down: 2}) {
		t.Fatalf("tally = %+v, want {0 2}", tr.Votes)
	}
}

func TestApplyVoteNeverGoesNegative(t *testing.T) {
	// A stored tally that lags behind its records must not underflow.
	tr := ApplyVote(models.VoteTally{}, []models.UserVote{{User: 1, VoteType: models.VoteUp}}, 1, models.VoteUp)
	if tr.Votes.Up != 0 || tr.Votes.Down != 0 {
		t.Fatalf("tally = %+v, want zero", tr.Votes)
	}
}
