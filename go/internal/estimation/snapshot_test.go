package estimation

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sizePtr(s Size) *Size { return &s }

func TestPublicViewRedactsVotesDuringVoting(t *testing.T) {
	endsAt := time.Date(2025, 6, 1, 12, 0, 20, 0, time.UTC)
	sess := &Session{
		ID:    "ABC123",
		Phase: PhaseVoting,
		Participants: map[string]*Participant{
			"conn-a": {ID: "conn-a", Username: "alice", Vote: sizePtr(SizeS)},
			"conn-b": {ID: "conn-b", Username: "bob"},
		},
		Votes:        map[string]Size{"conn-a": SizeS},
		VotingEndsAt: &endsAt,
	}

	got := publicView(sess)

	want := Snapshot{
		SessionID: "ABC123",
		Phase:     PhaseVoting,
		Participants: map[string]ParticipantView{
			"conn-a": {ID: "conn-a", Username: "alice", Voted: true},
			"conn-b": {ID: "conn-b", Username: "bob"},
		},
		EndsAt: &endsAt,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPublicViewRevealsVotesInResults(t *testing.T) {
	sess := &Session{
		ID:    "ABC123",
		Phase: PhaseResults,
		Participants: map[string]*Participant{
			"conn-a": {ID: "conn-a", Username: "alice", Vote: sizePtr(SizeM)},
			"conn-b": {ID: "conn-b", Username: "bob", Vote: sizePtr(SizeM)},
			"conn-c": {ID: "conn-c", Username: "carol"},
		},
		Votes: map[string]Size{"conn-a": SizeM, "conn-b": SizeM},
	}

	got := publicView(sess)

	want := Snapshot{
		SessionID: "ABC123",
		Phase:     PhaseResults,
		Participants: map[string]ParticipantView{
			"conn-a": {ID: "conn-a", Username: "alice", Voted: true, Vote: sizePtr(SizeM)},
			"conn-b": {ID: "conn-b", Username: "bob", Voted: true, Vote: sizePtr(SizeM)},
			"conn-c": {ID: "conn-c", Username: "carol"},
		},
		Results: &Results{
			Tally:      map[Size]int{SizeM: 2},
			TotalVotes: 2,
			MostCommon: SizeM,
			Consensus:  true,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestTallyVotes(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]Size
		want  Results
	}{
		{
			name:  "no votes",
			votes: map[string]Size{},
			want:  Results{Tally: map[Size]int{}, TotalVotes: 0, MostCommon: "", Consensus: false},
		},
		{
			name:  "unanimous",
			votes: map[string]Size{"a": SizeL, "b": SizeL},
			want:  Results{Tally: map[Size]int{SizeL: 2}, TotalVotes: 2, MostCommon: SizeL, Consensus: true},
		},
		{
			name:  "exactly half is not consensus",
			votes: map[string]Size{"a": SizeS, "b": SizeS, "c": SizeM, "d": SizeL},
			want:  Results{Tally: map[Size]int{SizeS: 2, SizeM: 1, SizeL: 1}, TotalVotes: 4, MostCommon: SizeS, Consensus: false},
		},
		{
			name:  "plurality above half",
			votes: map[string]Size{"a": SizeXL, "b": SizeXL, "c": SizeXL, "d": SizeS},
			want:  Results{Tally: map[Size]int{SizeXL: 3, SizeS: 1}, TotalVotes: 4, MostCommon: SizeXL, Consensus: true},
		},
		{
			name:  "tie resolves to the smaller size",
			votes: map[string]Size{"a": SizeXXL, "b": SizeXS},
			want:  Results{Tally: map[Size]int{SizeXS: 1, SizeXXL: 1}, TotalVotes: 2, MostCommon: SizeXS, Consensus: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tallyVotes(tt.votes)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	for _, s := range Sizes {
		got, ok := ParseSize(string(s))
		if !ok || got != s {
			t.Errorf("ParseSize(%q) = %q, %v", s, got, ok)
		}
	}
	if _, ok := ParseSize("XXXL"); ok {
		t.Error("ParseSize must reject unknown tokens")
	}
	if _, ok := ParseSize("m"); ok {
		t.Error("size tokens are case sensitive")
	}
}
