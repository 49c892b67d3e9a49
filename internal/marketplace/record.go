package marketplace

import "time"

// Column names shared with the upstream marketplace exports. TextField
// accessors resolve these so callers never reach into raw rows.
const (
	FieldJobType       = "job_type"
	FieldJobDetail     = "job_detail"
	FieldRequiredSkill = "required_skill"
	FieldSkills        = "skills"
	FieldJobHistory    = "job_history"
)

const dateLayout = "2006-01-02"

var clockLayouts = []string{"15:04:05", "15:04"}

// window assembles derived start/end timestamps from a calendar date and
// two wall-clock times. ok is false when any part does not parse; callers
// treat that as "no schedule" rather than an error.
func window(date, start, end string) (from, to time.Time, ok bool) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	st, ok := parseClock(start)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	et, ok := parseClock(end)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	from = day.Add(st)
	to = day.Add(et)
	return from, to, true
}

func parseClock(s string) (time.Duration, bool) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second
		return d, true
	}
	return 0, false
}

// midpoint is the representative wage for a (start, range) salary pair.
// The upstream app stores the upper bound in range_salary; a zero range
// means a single fixed figure.
func midpoint(start, rng float64) float64 {
	if rng > 0 {
		return (start + rng) / 2
	}
	return start
}
