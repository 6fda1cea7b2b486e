package services

import "github.com/anonto42/timeline-globe/backend/internal/models"

// VoteState is where a single user stands on a single post.
type VoteState int

const (
	NoVote VoteState = iota
	VotedUp
	VotedDown
)

func (s VoteState) String() string {
	switch s {
	case VotedUp:
		return "voted_up"
	case VotedDown:
		return "voted_down"
	default:
		return "no_vote"
	}
}

func stateFor(vt models.VoteType) VoteState {
	if vt == models.VoteUp {
		return VotedUp
	}
	return VotedDown
}

// Transition is the result of applying one vote to a post's vote records.
type Transition struct {
	From      VoteState
	To        VoteState
	Votes     models.VoteTally
	UserVotes []models.UserVote
}

// ApplyVote computes the next tally and vote records when user casts vt.
// Casting the current vote again withdraws it, casting the other vote
// switches it, and casting from no vote registers it. The input slice is not
// modified. Extra records for the same user are dropped and uncounted, so the
// result always holds at most one record per user.
func ApplyVote(tally models.VoteTally, userVotes []models.UserVote, user uint, vt models.VoteType) Transition {
	tr := Transition{From: NoVote, Votes: tally}

	at := -1
	next := make([]models.UserVote, 0, len(userVotes)+1)
	for _, v := range userVotes {
		if v.User != user {
			next = append(next, v)
			continue
		}
		if at < 0 {
			at = len(next)
			tr.From = stateFor(v.VoteType)
		}
		tr.Votes = uncount(tr.Votes, v.VoteType)
	}

	tr.To = stateFor(vt)
	if tr.From == tr.To {
		tr.To = NoVote
		tr.UserVotes = next
		return tr
	}

	vote := models.UserVote{User: user, VoteType: vt}
	if at < 0 {
		next = append(next, vote)
	} else {
		next = append(next[:at], append([]models.UserVote{vote}, next[at:]...)...)
	}
	tr.Votes = count(tr.Votes, vt)
	tr.UserVotes = next
	return tr
}

func count(t models.VoteTally, vt models.VoteType) models.VoteTally {
	switch vt {
	case models.VoteUp:
		t.Up++
	case models.VoteDown:
		t.Down++
	}
	return t
}

func uncount(t models.VoteTally, vt models.VoteType) models.VoteTally {
	switch vt {
	case models.VoteUp:
		if t.Up > 0 {
			t.Up--
		}
	case models.VoteDown:
		if t.Down > 0 {
			t.Down--
		}
	}
	return t
}
