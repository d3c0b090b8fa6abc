package estimation

import (
	"testing"
	"time"
)

func TestStoreGetOrCreate(t *testing.T) {
	store := NewStore()
	now := time.Now()

	sess := store.GetOrCreate("ABC123", now)
	if sess.Phase != PhaseWaiting {
		t.Errorf("got phase %q, want %q", sess.Phase, PhaseWaiting)
	}
	if len(sess.Participants) != 0 || len(sess.Votes) != 0 {
		t.Error("fresh session must have no participants or votes")
	}
	if sess.VotingEndsAt != nil {
		t.Error("fresh session must not carry a deadline")
	}

	again := store.GetOrCreate("ABC123", now.Add(time.Minute))
	if again != sess {
		t.Error("GetOrCreate must return the existing session")
	}
	if store.Len() != 1 {
		t.Errorf("got %d sessions, want 1", store.Len())
	}
}

func TestStoreGetAndDelete(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("missing"); ok {
		t.Error("Get must report absent sessions")
	}

	store.GetOrCreate("ABC123", time.Now())
	if _, ok := store.Get("ABC123"); !ok {
		t.Error("Get must find a created session")
	}

	store.Delete("ABC123")
	if _, ok := store.Get("ABC123"); ok {
		t.Error("Delete must remove the session")
	}

	// Deleting an unknown id is a no-op.
	store.Delete("missing")
}
