package datasets

import (
	"fmt"

	"go.uber.org/zap"
)

// GroupLabel keys a (group, label) bucket.
type GroupLabel struct {
	Group int
	Label int
}

// Labeled is implemented by every record type that carries a group and a
// label.
type Labeled interface {
	GroupLabel() GroupLabel
}

// Counts holds the per-(group,label) bookkeeping of a record collection.
type Counts struct {
	NumGroups  int
	NumClasses int

	// NumData[g][l] is the number of records in bucket (g,l).
	NumData [][]int

	// IdxsPerGroup maps a bucket to the indices of its records, ascending.
	IdxsPerGroup map[GroupLabel][]int
}

// DataCount walks records once and builds their Counts. A record outside
// [0,numGroups) x [0,numClasses) yields ErrOutOfRange.
func DataCount[R Labeled](records []R, numGroups, numClasses int) (Counts, error) {
	c := Counts{
		NumGroups:    numGroups,
		NumClasses:   numClasses,
		NumData:      make([][]int, numGroups),
		IdxsPerGroup: make(map[GroupLabel][]int),
	}
	for g := range numGroups {
		c.NumData[g] = make([]int, numClasses)
	}

	for idx, r := range records {
		gl := r.GroupLabel()
		if gl.Group < 0 || gl.Group >= numGroups || gl.Label < 0 || gl.Label >= numClasses {
			return Counts{}, fmt.Errorf("record %d has (group=%d, label=%d) with %d groups and %d classes: %w",
				idx, gl.Group, gl.Label, numGroups, numClasses, ErrOutOfRange)
		}
		c.NumData[gl.Group][gl.Label]++
		c.IdxsPerGroup[gl] = append(c.IdxsPerGroup[gl], idx)
	}

	return c, nil
}

// Total returns the number of records counted.
func (c Counts) Total() int {
	total := 0
	for _, row := range c.NumData {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Bucket returns the indices of bucket (g,l).
func (c Counts) Bucket(g, l int) []int {
	return c.IdxsPerGroup[GroupLabel{Group: g, Label: l}]
}

// logCounts prints one line per group, the way the training scripts expect to
// see the distribution of the selected split.
func logCounts(log *zap.Logger, mode string, c Counts) {
	for g, row := range c.NumData {
		log.Info("group data",
			zap.String("mode", mode),
			zap.Int("group", g),
			zap.Ints("per_label", row),
		)
	}
}
