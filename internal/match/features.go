package match

import (
	"math"
	"strings"
)

// FeatureNames is the canonical feature order. Models are trained and
// served against exactly this arity and ordering.
var FeatureNames = []string{"sim", "wage_proximity", "same_type", "time_overlap", "loc_match"}

// NumFeatures is the fixed arity of a feature vector.
const NumFeatures = 5

// Features holds the per-pair scores. WageDiff is the raw absolute wage
// gap; WageProximity is its batch-normalized inversion and is what enters
// the feature vector. All other values are already in [0, 1].
type Features struct {
	Sim           float64
	WageDiff      float64
	WageProximity float64
	SameType      float64
	TimeOverlap   float64
	LocMatch      float64
}

// Vector returns the feature values in canonical order.
func (f Features) Vector() []float64 {
	return []float64{f.Sim, f.WageProximity, f.SameType, f.TimeOverlap, f.LocMatch}
}

// Extract computes the pair features for two opposite-side records. It
// never fails: missing numeric fields contribute 0, missing categorical
// fields simply do not match, unparseable schedules mean no overlap.
// The similarity is computed once during retrieval and passed in.
func Extract(a, b Record, sim float64) Features {
	f := Features{Sim: sim}

	f.WageDiff = math.Abs(a.Wage() - b.Wage())

	at := strings.ToLower(strings.TrimSpace(a.Type()))
	bt := strings.ToLower(strings.TrimSpace(b.Type()))
	if at != "" && at == bt {
		f.SameType = 1
	}

	if overlaps(a, b) {
		f.TimeOverlap = 1
	}

	ap, ad, as := a.Place()
	bp, bd, bs := b.Place()
	if ap != "" && ap == bp && ad == bd && as == bs {
		f.LocMatch = 1
	}

	return f
}

// overlaps reports whether the two schedule windows intersect with
// positive duration. Either side without a parseable window never
// overlaps.
func overlaps(a, b Record) bool {
	as, ae, ok := a.Window()
	if !ok {
		return false
	}
	bs, be, ok := b.Window()
	if !ok {
		return false
	}

	start := as
	if bs.After(start) {
		start = bs
	}
	end := ae
	if be.Before(end) {
		end = be
	}
	return end.After(start)
}

// NormalizeWages converts raw wage gaps into proximity scores within one
// batch: 1 - diff/max(diff). A batch with zero spread scores 1.0
// everywhere. Serving normalizes within the retrieved set; training
// normalizes within each query group, keeping the feature's meaning
// identical on both paths.
func NormalizeWages(feats []Features) {
	maxDiff := 0.0
	for _, f := range feats {
		if f.WageDiff > maxDiff {
			maxDiff = f.WageDiff
		}
	}

	for i := range feats {
		if maxDiff <= 0 {
			feats[i].WageProximity = 1
			continue
		}
		feats[i].WageProximity = 1 - feats[i].WageDiff/maxDiff
	}
}
