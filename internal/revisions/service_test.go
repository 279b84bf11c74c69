package revisions

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestProposalRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{
		Title: "Domiciliary Care Bid",
		Sections: []SectionContent{
			{ID: "sec_1", Title: "Executive Summary", Content: "We provide care.", Order: 1},
			{ID: "sec_2", Title: "Staffing", Content: "Qualified staff.", Order: 2},
		},
	}

	if err := svc.EnsureRepo("prop-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "prop-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Re-ensuring is a no-op.
	if err := svc.EnsureRepo("prop-1", initial, "Avery"); err != nil {
		t.Fatalf("second EnsureRepo() error = %v", err)
	}

	updated := initial
	updated.Sections = append([]SectionContent(nil), initial.Sections...)
	updated.Sections[1].Content = "Qualified staff with CQC-registered manager."
	commit, err := svc.SaveRevision("prop-1", updated, "Avery", "Strengthen staffing section")
	if err != nil {
		t.Fatalf("SaveRevision() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	history, err := svc.History("prop-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Message != "Strengthen staffing section" {
		t.Errorf("newest commit message = %q", history[0].Message)
	}

	latest, info, err := svc.GetContent("prop-1", Latest)
	if err != nil {
		t.Fatalf("GetContent(latest) error = %v", err)
	}
	if latest.Sections[1].Content != updated.Sections[1].Content {
		t.Errorf("latest content = %+v", latest.Sections[1])
	}
	if info.Hash != commit.Hash {
		t.Errorf("latest hash = %s, want %s", info.Hash, commit.Hash)
	}

	baseline, _, err := svc.GetContent("prop-1", history[1].Hash)
	if err != nil {
		t.Fatalf("GetContent(hash) error = %v", err)
	}
	if baseline.Sections[1].Content != "Qualified staff." {
		t.Errorf("baseline content = %+v", baseline.Sections[1])
	}
}

func TestHistoryForUnversionedProposal(t *testing.T) {
	svc := New(t.TempDir())
	history, err := svc.History("prop-without-repo", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("history = %v, want empty", history)
	}
}

func TestGetContentUnknownProposal(t *testing.T) {
	svc := New(t.TempDir())
	if _, _, err := svc.GetContent("missing", Latest); err == nil {
		t.Error("expected error for unknown proposal")
	}
}

func TestHasChanges(t *testing.T) {
	base := Content{
		Title:    "Bid",
		Sections: []SectionContent{{ID: "a", Title: "A", Content: "x", Order: 1}},
	}
	same := Content{
		Title:    "Bid",
		Sections: []SectionContent{{ID: "a", Title: "A", Content: "x", Order: 1}},
	}
	if HasChanges(base, same) {
		t.Error("identical snapshots should report no changes")
	}

	titled := same
	titled.Title = "Renamed Bid"
	if !HasChanges(base, titled) {
		t.Error("title change should be detected")
	}

	edited := Content{
		Title:    "Bid",
		Sections: []SectionContent{{ID: "a", Title: "A", Content: "y", Order: 1}},
	}
	if !HasChanges(base, edited) {
		t.Error("section edit should be detected")
	}

	grown := Content{
		Title:    "Bid",
		Sections: append(append([]SectionContent(nil), base.Sections...), SectionContent{ID: "b"}),
	}
	if !HasChanges(base, grown) {
		t.Error("added section should be detected")
	}
}

func TestConcurrentSaves(t *testing.T) {
	svc := New(t.TempDir())
	if err := svc.EnsureRepo("prop-1", Content{Title: "Bid"}, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			content := Content{Title: "Bid", Body: string(rune('a' + n))}
			if _, err := svc.SaveRevision("prop-1", content, "Avery", "edit"); err != nil {
				t.Errorf("SaveRevision() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	history, err := svc.History("prop-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 5 {
		t.Errorf("history length = %d, want 5", len(history))
	}
}
