package estimation

import "time"

// Snapshot is the public projection of a session that gets broadcast to
// room members. While the session is in voting phase, every vote value
// is replaced by a presence flag; true values appear only once the
// round has ended. This is the single enforcement point for that rule.
type Snapshot struct {
	SessionID    string                     `json:"session_id"`
	Phase        Phase                      `json:"phase"`
	Participants map[string]ParticipantView `json:"participants"`
	EndsAt       *time.Time                 `json:"ends_at,omitempty"`
	Results      *Results                   `json:"results,omitempty"`
}

// ParticipantView is a participant as seen by other room members.
// Vote is populated only in results phase.
type ParticipantView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Voted    bool   `json:"voted"`
	Vote     *Size  `json:"vote,omitempty"`
}

// Results carries the revealed tally and the consensus judgment for a
// completed round.
type Results struct {
	Tally      map[Size]int `json:"tally"`
	TotalVotes int          `json:"total_votes"`
	MostCommon Size         `json:"most_common,omitempty"`
	Consensus  bool         `json:"consensus"`
}

// publicView projects a session into its broadcastable form. Callers
// must hold the App mutex.
func publicView(sess *Session) Snapshot {
	snap := Snapshot{
		SessionID:    sess.ID,
		Phase:        sess.Phase,
		Participants: make(map[string]ParticipantView, len(sess.Participants)),
		EndsAt:       sess.VotingEndsAt,
	}

	reveal := sess.Phase == PhaseResults
	for id, p := range sess.Participants {
		view := ParticipantView{
			ID:       p.ID,
			Username: p.Username,
			Voted:    p.Vote != nil,
		}
		if reveal && p.Vote != nil {
			v := *p.Vote
			view.Vote = &v
		}
		snap.Participants[id] = view
	}

	if reveal {
		results := tallyVotes(sess.Votes)
		snap.Results = &results
	}

	return snap
}

// tallyVotes counts votes per size and computes the consensus judgment:
// consensus is reached when the plurality share exceeds half of all
// votes cast. Ties for the most common size resolve toward the smaller
// size so the result is deterministic.
func tallyVotes(votes map[string]Size) Results {
	results := Results{
		Tally:      make(map[Size]int),
		TotalVotes: len(votes),
	}
	for _, v := range votes {
		results.Tally[v]++
	}

	best := 0
	for _, size := range Sizes {
		if count := results.Tally[size]; count > best {
			best = count
			results.MostCommon = size
		}
	}
	if results.TotalVotes > 0 && best*2 > results.TotalVotes {
		results.Consensus = true
	}
	return results
}
