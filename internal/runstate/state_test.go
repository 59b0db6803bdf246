package runstate

import (
	"testing"
)

func TestNewAndLoad(t *testing.T) {
	root := t.TempDir()

	s, err := New(root, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.ID == "" {
		t.Error("expected a generated run ID")
	}
	if !Exists(root) {
		t.Error("expected state file to exist after New")
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != s.ID || loaded.TotalWaves != 3 {
		t.Errorf("loaded state mismatch: %+v", loaded)
	}
}

func TestUpdateProjectPersists(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.UpdateProject("widgets", &ProjectState{Status: StatusCompleted, Wave: 0}); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ps := loaded.GetProject("widgets")
	if ps == nil || ps.Status != StatusCompleted {
		t.Errorf("expected persisted project state, got %+v", ps)
	}
}

func TestArchiveAndHistory(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.SetStatus("completed")

	if err := s.Archive(); err != nil {
		t.Fatalf("archive: %v", err)
	}

	ids, err := History(root)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(ids) != 1 || ids[0] != s.ID {
		t.Errorf("expected history=[%s], got %v", s.ID, ids)
	}
}

func TestLoadArchived(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.UpdateProject("widgets", &ProjectState{Status: StatusCompleted, Wave: 0})
	s.SetStatus("completed")

	if err := s.Archive(); err != nil {
		t.Fatalf("archive: %v", err)
	}

	loaded, err := LoadArchived(root, s.ID)
	if err != nil {
		t.Fatalf("load archived: %v", err)
	}
	if loaded.ID != s.ID || loaded.Status != "completed" {
		t.Errorf("loaded archived state mismatch: %+v", loaded)
	}
	ps := loaded.GetProject("widgets")
	if ps == nil || ps.Status != StatusCompleted {
		t.Errorf("expected archived project state, got %+v", ps)
	}
}

func TestLoadArchived_UnknownID(t *testing.T) {
	root := t.TempDir()
	if _, err := LoadArchived(root, "does-not-exist"); err == nil {
		t.Error("expected error for unknown archived run ID")
	}
}

func TestHistory_EmptyWhenNoRuns(t *testing.T) {
	root := t.TempDir()
	ids, err := History(root)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no history, got %v", ids)
	}
}
