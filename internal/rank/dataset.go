package rank

import (
	"errors"
	"fmt"
)

// Dataset is a listwise training set: feature rows with binary relevance
// labels, partitioned into contiguous query groups. Group boundaries are
// what make the listwise objective possible.
type Dataset struct {
	Features [][]float64
	Labels   []float64
	Groups   []int
}

// AddGroup appends one query group. Rows of a group must be added
// together so they stay contiguous.
func (d *Dataset) AddGroup(rows [][]float64, labels []float64) {
	if len(rows) == 0 {
		return
	}
	d.Features = append(d.Features, rows...)
	d.Labels = append(d.Labels, labels...)
	d.Groups = append(d.Groups, len(rows))
}

func (d *Dataset) Len() int {
	return len(d.Features)
}

func (d *Dataset) Validate() error {
	if d.Len() == 0 {
		return errors.New("training set is empty")
	}
	if len(d.Labels) != d.Len() {
		return fmt.Errorf("have %d labels for %d rows", len(d.Labels), d.Len())
	}

	total := 0
	for i, size := range d.Groups {
		if size <= 0 {
			return fmt.Errorf("group %d has size %d", i, size)
		}
		total += size
	}
	if total != d.Len() {
		return fmt.Errorf("group sizes sum to %d, have %d rows", total, d.Len())
	}

	arity := len(d.Features[0])
	if arity == 0 {
		return errors.New("feature rows are empty")
	}
	for i, row := range d.Features {
		if len(row) != arity {
			return fmt.Errorf("row %d has arity %d, expected %d", i, len(row), arity)
		}
	}

	return nil
}
