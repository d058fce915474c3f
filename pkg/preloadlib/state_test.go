package preloadlib

import "testing"

func TestRequestState_Lifecycle(t *testing.T) {
	rs := NewRequestState()
	const u = "https://example.com/a.png"

	rs.Enqueue(u)
	st := rs.Snapshot(1)
	if st.Queued != 1 {
		t.Fatalf("expected 1 queued, got %d", st.Queued)
	}

	if !rs.BeginFlight(u) {
		t.Fatal("expected BeginFlight to claim the url")
	}
	if !rs.InFlight(u) {
		t.Fatal("expected url in flight")
	}
	// Queued and inFlight are disjoint: claiming removes the queue entry.
	if st = rs.Snapshot(1); st.Queued != 0 || st.Loading != 1 {
		t.Fatalf("expected 0 queued / 1 loading, got %+v", st)
	}

	rs.EndFlight(u, true)
	if !rs.Done(u) {
		t.Fatal("expected url done")
	}
	if rs.InFlight(u) {
		t.Fatal("expected url no longer in flight")
	}
}

func TestRequestState_DoneIsTerminal(t *testing.T) {
	rs := NewRequestState()
	const u = "/a.png"
	if !rs.BeginFlight(u) {
		t.Fatal("first claim should succeed")
	}
	rs.EndFlight(u, true)

	if rs.BeginFlight(u) {
		t.Fatal("done url must not be claimable again")
	}
	rs.Enqueue(u)
	if st := rs.Snapshot(1); st.Queued != 0 {
		t.Fatal("done url must not re-enter the queue")
	}
	if rs.Dispatchable(u) {
		t.Fatal("done url must not be dispatchable")
	}
}

func TestRequestState_FailedIsTerminalThisSession(t *testing.T) {
	rs := NewRequestState()
	const u = "/broken.png"
	rs.BeginFlight(u)
	rs.EndFlight(u, false)

	if !rs.Failed(u) {
		t.Fatal("expected url failed")
	}
	if rs.BeginFlight(u) {
		t.Fatal("failed url must not be claimable again")
	}
	if rs.Dispatchable(u) {
		t.Fatal("failed url must not be dispatchable")
	}
}

func TestRequestState_SingleClaim(t *testing.T) {
	rs := NewRequestState()
	const u = "/a.png"
	if !rs.BeginFlight(u) {
		t.Fatal("first claim should succeed")
	}
	if rs.BeginFlight(u) {
		t.Fatal("second concurrent claim must fail")
	}
}

func TestRequestState_ExactStringKeys(t *testing.T) {
	rs := NewRequestState()
	// Relative and absolute forms of the same resource are distinct keys.
	rs.BeginFlight("/a.png")
	rs.EndFlight("/a.png", true)
	if rs.Done("https://example.com/a.png") {
		t.Fatal("no URL normalization may happen")
	}
	if !rs.Dispatchable("https://example.com/a.png") {
		t.Fatal("absolute form should still be dispatchable")
	}
}
