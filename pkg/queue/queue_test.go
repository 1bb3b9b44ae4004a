package queue

import "testing"

func TestFullPipeline_Order(t *testing.T) {
	want := []StageName{StageEmbed, StageClassify, StageSentiment, StageDuplicate, StageTheme}
	got := FullPipeline()

	if len(got) != len(want) {
		t.Fatalf("FullPipeline() has %d stages, want %d", len(got), len(want))
	}
	for i, stage := range want {
		if got[i] != stage {
			t.Errorf("FullPipeline()[%d] = %q, want %q", i, got[i], stage)
		}
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("fb_abc", 42, FullPipeline(), 5)

	if job.ID == "" {
		t.Error("NewJob() did not assign an ID")
	}
	if job.FeedbackID != "fb_abc" {
		t.Errorf("FeedbackID = %q, want fb_abc", job.FeedbackID)
	}
	if job.WorkspaceID != 42 {
		t.Errorf("WorkspaceID = %d, want 42", job.WorkspaceID)
	}
	if job.Priority != 5 {
		t.Errorf("Priority = %d, want 5", job.Priority)
	}
	if job.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0 for a fresh job", job.RetryCount)
	}
	if job.CreatedAt.IsZero() {
		t.Error("NewJob() did not set CreatedAt")
	}
}
