package pipeline

import (
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("spec.pdf", "04", []byte("data"), JobOptions{SkipCache: true})
	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if !job.skipCache || job.extract {
		t.Errorf("options not applied: skipCache=%v extract=%v", job.skipCache, job.extract)
	}
	if other := NewJob("spec.pdf", "04", nil, JobOptions{}); other.ID == job.ID {
		t.Error("expected unique job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusAnalyzing, "structure"},
		{StatusScanning, "classifying tiles"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	tests := map[JobStatus]bool{
		StatusQueued:    false,
		StatusParsing:   false,
		StatusAnalyzing: false,
		StatusScanning:  false,
		StatusCompleted: true,
		StatusNotFound:  true,
		StatusFailed:    true,
	}
	for status, want := range tests {
		if got := status.Done(); got != want {
			t.Errorf("%q.Done() = %v, want %v", status, got, want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("tile 3 failed")
	job.AddError("tile 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "tile 3 failed" {
		t.Errorf("expected first error %q, got %q", "tile 3 failed", snap.Progress.Errors[0])
	}

	// The snapshot must not alias the job's slice.
	snap.Progress.Errors[0] = "changed"
	if job.Snapshot().Progress.Errors[0] != "tile 3 failed" {
		t.Error("snapshot errors alias job state")
	}
}

func TestJob_SetProgress(t *testing.T) {
	job := &Job{ID: "progress-test", UpdatedAt: time.Now()}
	job.SetProgress(5, 1, 12)
	job.SetProgress(10, 2, 12)

	snap := job.Snapshot()
	if snap.Progress.TilesScanned != 10 || snap.Progress.TilesMatched != 2 || snap.Progress.TotalTiles != 12 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestJob_SetResultReleasesFileData(t *testing.T) {
	job := NewJob("a.txt", "04", []byte("file content here"), JobOptions{})
	if string(job.FileData()) != "file content here" {
		t.Fatalf("unexpected file data %q", job.FileData())
	}
	job.SetResult(&Result{TotalTiles: 4, MatchedTileCount: 2})
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
	if job.Result() == nil {
		t.Fatal("expected result")
	}
	snap := job.Snapshot()
	if snap.Progress.TotalTiles != 4 || snap.Progress.TilesMatched != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now().Add(-time.Second)}
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(fresh)

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 removed job, got %d", n)
	}
	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	if n := store.Cleanup(); n != 0 {
		t.Errorf("expected nothing removed, got %d", n)
	}
}
