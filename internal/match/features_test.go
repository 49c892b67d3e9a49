package match

import (
	"testing"

	"github.com/nakarin/jobmatch/internal/marketplace"
)

func driverJob() *marketplace.JobPosting {
	job := &marketplace.JobPosting{
		ID:        "j1",
		JobType:   "Driver",
		Salary:    500,
		Province:  "Bangkok",
		Date:      "2025-03-20",
		StartTime: "08:00:00",
		EndTime:   "17:00:00",
	}
	job.Normalize()
	return job
}

func driverWorker() *marketplace.WorkerProfile {
	worker := &marketplace.WorkerProfile{
		ID:             "w1",
		JobType:        "Driver",
		ExpectedSalary: 520,
		Province:       "Bangkok",
		Date:           "2025-03-20",
		StartTime:      "09:00:00",
		EndTime:        "18:00:00",
	}
	worker.Normalize()
	return worker
}

func TestExtractMatchingPair(t *testing.T) {
	f := Extract(driverJob(), driverWorker(), 0.8)

	if f.SameType != 1 {
		t.Fatalf("expected same_type=1, got %v", f.SameType)
	}
	if f.TimeOverlap != 1 {
		t.Fatalf("expected time_overlap=1 for 09:00-17:00 intersection, got %v", f.TimeOverlap)
	}
	if f.LocMatch != 1 {
		t.Fatalf("expected loc_match=1, got %v", f.LocMatch)
	}
	if f.WageDiff != 20 {
		t.Fatalf("expected wage diff 20, got %v", f.WageDiff)
	}
	if f.Sim != 0.8 {
		t.Fatalf("expected sim to be passed through, got %v", f.Sim)
	}
}

func TestExtractTypeMismatch(t *testing.T) {
	cook := driverWorker()
	cook.JobType = "Cook"

	f := Extract(driverJob(), cook, 0.8)
	if f.SameType != 0 {
		t.Fatalf("expected same_type=0 for Driver vs Cook, got %v", f.SameType)
	}
}

func TestExtractTypeIsTrimmedAndCaseFolded(t *testing.T) {
	worker := driverWorker()
	worker.JobType = "  driver "

	f := Extract(driverJob(), worker, 0)
	if f.SameType != 1 {
		t.Fatalf("expected trimmed case-folded types to match, got %v", f.SameType)
	}
}

func TestExtractEmptyTypesDoNotMatch(t *testing.T) {
	job := driverJob()
	worker := driverWorker()
	job.JobType = ""
	worker.JobType = ""

	f := Extract(job, worker, 0)
	if f.SameType != 0 {
		t.Fatalf("absent job types must not count as a match, got %v", f.SameType)
	}
}

func TestExtractMissingLocationsDoNotMatch(t *testing.T) {
	job := &marketplace.JobPosting{JobType: "Driver"}
	worker := &marketplace.WorkerProfile{JobType: "Cook"}

	f := Extract(job, worker, 0)
	if f.LocMatch != 0 {
		t.Fatalf("records without location data must not count as co-located, got %v", f.LocMatch)
	}
}

func TestExtractUnparseableScheduleMeansNoOverlap(t *testing.T) {
	worker := driverWorker()
	worker.StartTime = "not-a-time"
	worker.Normalize()

	f := Extract(driverJob(), worker, 0)
	if f.TimeOverlap != 0 {
		t.Fatalf("unparseable schedule must yield time_overlap=0, got %v", f.TimeOverlap)
	}
}

func TestExtractTouchingWindowsDoNotOverlap(t *testing.T) {
	worker := driverWorker()
	worker.StartTime = "17:00:00"
	worker.EndTime = "20:00:00"
	worker.Normalize()

	f := Extract(driverJob(), worker, 0)
	if f.TimeOverlap != 0 {
		t.Fatalf("zero-duration intersection must not count as overlap, got %v", f.TimeOverlap)
	}
}

func TestExtractDifferentDatesDoNotOverlap(t *testing.T) {
	worker := driverWorker()
	worker.Date = "2025-03-21"
	worker.Normalize()

	f := Extract(driverJob(), worker, 0)
	if f.TimeOverlap != 0 {
		t.Fatalf("different calendar dates must not overlap, got %v", f.TimeOverlap)
	}
}

func TestNormalizeWages(t *testing.T) {
	feats := []Features{
		{WageDiff: 0},
		{WageDiff: 50},
		{WageDiff: 100},
	}
	NormalizeWages(feats)

	if feats[0].WageProximity != 1 {
		t.Fatalf("zero gap must score 1.0, got %v", feats[0].WageProximity)
	}
	if feats[1].WageProximity != 0.5 {
		t.Fatalf("half the max gap must score 0.5, got %v", feats[1].WageProximity)
	}
	if feats[2].WageProximity != 0 {
		t.Fatalf("max gap must score 0, got %v", feats[2].WageProximity)
	}
}

func TestNormalizeWagesZeroSpread(t *testing.T) {
	feats := []Features{{WageDiff: 0}, {WageDiff: 0}}
	NormalizeWages(feats)

	for i, f := range feats {
		if f.WageProximity != 1 {
			t.Fatalf("zero-spread batch must score 1.0 everywhere, got %v at %d", f.WageProximity, i)
		}
	}
}

func TestFeatureBounds(t *testing.T) {
	feats := []Features{
		Extract(driverJob(), driverWorker(), 0.9),
		Extract(driverJob(), &marketplace.WorkerProfile{JobType: "Cook"}, 0.1),
	}
	NormalizeWages(feats)

	for i, f := range feats {
		for name, v := range map[string]float64{
			"same_type":      f.SameType,
			"time_overlap":   f.TimeOverlap,
			"loc_match":      f.LocMatch,
			"wage_proximity": f.WageProximity,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("feature %s out of [0,1] at row %d: %v", name, i, v)
			}
		}
	}
}

func TestFeatureVectorOrder(t *testing.T) {
	f := Features{Sim: 1, WageProximity: 2, SameType: 3, TimeOverlap: 4, LocMatch: 5}
	v := f.Vector()

	want := []float64{1, 2, 3, 4, 5}
	if len(v) != NumFeatures {
		t.Fatalf("expected arity %d, got %d", NumFeatures, len(v))
	}
	for i := range want {
		if v[i] != want[i] {
			t.Fatalf("canonical order broken at %d: got %v", i, v)
		}
	}
}
