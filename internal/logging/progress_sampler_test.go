package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
		{"small bucket size", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "stage", "message") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset() // should not panic
}

func TestProgressSampler_ShouldLogStageChange(t *testing.T) {
	s := NewProgressSampler(5)

	// First stage should log
	if !s.ShouldLog(0, "fetch", "listing threads") {
		t.Error("first stage should log")
	}

	// Same stage, same percent should not log
	if s.ShouldLog(0, "fetch", "still listing") {
		t.Error("same stage and percent should not log again")
	}

	// Different stage should log
	if !s.ShouldLog(0, "analyze", "starting") {
		t.Error("different stage should log")
	}

	if s.lastStage != "analyze" {
		t.Errorf("lastStage = %q, want analyze", s.lastStage)
	}
}

func TestProgressSampler_ShouldLogStageTrimsWhitespace(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(0, "  analyze  ", "starting")
	if s.lastStage != "analyze" {
		t.Errorf("lastStage = %q, want analyze (trimmed)", s.lastStage)
	}
}

func TestProgressSampler_ShouldLogPercentBuckets(t *testing.T) {
	s := NewProgressSampler(5) // 5% buckets

	if !s.ShouldLog(0, "analyze", "") {
		t.Error("0% should log")
	}
	if s.ShouldLog(3, "analyze", "") {
		t.Error("3% should not log (same bucket)")
	}
	if !s.ShouldLog(5, "analyze", "") {
		t.Error("5% should log (new bucket)")
	}
	if s.ShouldLog(7, "analyze", "") {
		t.Error("7% should not log (same bucket)")
	}
	if !s.ShouldLog(10, "analyze", "") {
		t.Error("10% should log (new bucket)")
	}
}

func TestProgressSampler_ShouldLogNegativePercent(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(-1, "unknown", "") {
		t.Error("first call should log even with negative percent")
	}
	if s.ShouldLog(-1, "unknown", "") {
		t.Error("negative percent should not trigger bucket logging")
	}
}

func TestProgressSampler_ShouldLogCaps100Percent(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(95, "analyze", "")

	if !s.ShouldLog(100, "analyze", "") {
		t.Error("100% should log")
	}
	if s.ShouldLog(105, "analyze", "") {
		t.Error("105% should not log again (same as 100% bucket)")
	}
}

func TestProgressSampler_ShouldLogBucketResetOnStageChange(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(50, "fetch", "")

	// Stage change resets the bucket
	s.ShouldLog(0, "analyze", "")

	if !s.ShouldLog(10, "analyze", "") {
		t.Error("10% should log after stage change reset bucket")
	}
}

func TestProgressSampler_ShouldLogIgnoresMessage(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(10, "analyze", "batch 1 of 10")

	if s.ShouldLog(10, "analyze", "batch 1 of 10 still running") {
		t.Error("different message should not trigger logging")
	}
}

func TestProgressSampler_Reset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "fetch", "")

	s.Reset()

	if s.lastStage != "" {
		t.Errorf("lastStage = %q, want empty after reset", s.lastStage)
	}
	if s.lastBucket != -1 {
		t.Errorf("lastBucket = %d, want -1 after reset", s.lastBucket)
	}
	if !s.ShouldLog(50, "fetch", "") {
		t.Error("should log after reset")
	}
}
