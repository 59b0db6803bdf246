package orchestrate

import "testing"

func TestOnChange_StartsImmediatelyWhenIdle(t *testing.T) {
	s := &actorState{}
	toBuild, start := s.onChange([]string{"a", "b"})
	if !start {
		t.Fatal("expected a build to start")
	}
	if len(toBuild) != 2 || !toBuild["a"] || !toBuild["b"] {
		t.Errorf("unexpected build set: %v", toBuild)
	}
	if !s.isBuilding || s.buildCount != 1 {
		t.Errorf("expected isBuilding=true, buildCount=1, got %v/%d", s.isBuilding, s.buildCount)
	}
}

func TestOnChange_CoalescesWhileBuilding(t *testing.T) {
	s := &actorState{}
	s.onChange([]string{"a"})

	_, start := s.onChange([]string{"b"})
	if start {
		t.Fatal("expected no new build to start while one is in progress")
	}
	if s.buildCount != 1 {
		t.Errorf("expected buildCount to stay at 1, got %d", s.buildCount)
	}
	if !s.pending["b"] {
		t.Errorf("expected b to be pending, got %v", s.pending)
	}
}

func TestOnBuildDone_NoPendingReleasesOnly(t *testing.T) {
	s := &actorState{}
	s.onChange([]string{"a"})

	toBuild, start := s.onBuildDone()
	if start {
		t.Fatal("expected no follow-up build")
	}
	if toBuild != nil {
		t.Errorf("expected nil build set, got %v", toBuild)
	}
	if s.isBuilding {
		t.Error("expected isBuilding to be released")
	}
}

func TestOnBuildDone_PendingTriggersFollowUp(t *testing.T) {
	s := &actorState{}
	s.onChange([]string{"a"})
	s.onChange([]string{"b"}) // coalesced into pending

	toBuild, start := s.onBuildDone()
	if !start {
		t.Fatal("expected a follow-up build to start")
	}
	if len(toBuild) != 1 || !toBuild["b"] {
		t.Errorf("expected follow-up build set {b}, got %v", toBuild)
	}
	if s.buildCount != 2 {
		t.Errorf("expected buildCount=2, got %d", s.buildCount)
	}
	if s.pending != nil {
		t.Error("expected pending to be cleared")
	}
}

func TestOnBuildDone_ChainsMultipleCoalescedRounds(t *testing.T) {
	s := &actorState{}
	s.onChange([]string{"a"})
	s.onChange([]string{"b"})
	s.onChange([]string{"c"})

	toBuild, start := s.onBuildDone()
	if !start || len(toBuild) != 2 || !toBuild["b"] || !toBuild["c"] {
		t.Errorf("expected follow-up build {b,c}, got %v (start=%v)", toBuild, start)
	}

	_, start = s.onBuildDone()
	if start {
		t.Error("expected no further build after the follow-up drains")
	}
}
