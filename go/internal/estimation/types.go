package estimation

import "time"

// Phase represents the current stage of an estimation session.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseVoting  Phase = "voting"
	PhaseResults Phase = "results"
)

// Size is a t-shirt size token used for estimation votes.
type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// Sizes lists all valid vote tokens in display order, smallest first.
var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

// ParseSize returns the Size for a raw token and whether it is valid.
func ParseSize(raw string) (Size, bool) {
	for _, s := range Sizes {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Session is one collaborative estimation room, identified by a
// caller-chosen code. Invariants: Votes keys are always a subset of
// Participants keys, and VotingEndsAt is set iff Phase is PhaseVoting.
type Session struct {
	ID           string
	Phase        Phase
	Participants map[string]*Participant
	Votes        map[string]Size
	VotingEndsAt *time.Time
	CreatedAt    time.Time
}

// Participant is one live connection's membership record within a session.
// A reconnecting person is a new, unrelated participant.
type Participant struct {
	ID       string
	Username string
	Vote     *Size
	JoinedAt time.Time
}
