package datasets

// SplitFunc partitions image records into train and test subsets. The exact
// ratio belongs to the routine, not to the adapter calling it.
type SplitFunc func(records []ImageRecord, numGroups, numClasses int) (train, test []ImageRecord)

// SplitPerBucket moves quota(bucketSize) records of every (group,label) bucket
// to the test subset. Records are visited from the end of the slice, so the
// last records of each bucket are the ones held out. The train subset keeps
// the input order; the test subset is in visiting order. Records whose bucket
// is out of range always stay in train.
func SplitPerBucket[R Labeled](records []R, numGroups, numClasses int, quota func(bucketSize int) int) (train, test []R) {
	sizes := make(map[GroupLabel]int)
	for _, r := range records {
		sizes[r.GroupLabel()]++
	}

	taken := make(map[GroupLabel]int)
	held := make([]bool, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		gl := records[i].GroupLabel()
		if gl.Group < 0 || gl.Group >= numGroups || gl.Label < 0 || gl.Label >= numClasses {
			continue
		}
		if taken[gl] < quota(sizes[gl]) {
			taken[gl]++
			held[i] = true
			test = append(test, records[i])
		}
	}

	train = make([]R, 0, len(records)-len(test))
	for i, r := range records {
		if !held[i] {
			train = append(train, r)
		}
	}
	return train, test
}

// HoldoutSplit keeps up to n records of every bucket for testing.
func HoldoutSplit(n int) SplitFunc {
	return func(records []ImageRecord, numGroups, numClasses int) ([]ImageRecord, []ImageRecord) {
		return SplitPerBucket(records, numGroups, numClasses, func(size int) int {
			return min(n, size)
		})
	}
}

// RatioSplit keeps int(ratio*bucketSize) records of every bucket for testing.
func RatioSplit(ratio float64) SplitFunc {
	return func(records []ImageRecord, numGroups, numClasses int) ([]ImageRecord, []ImageRecord) {
		return SplitPerBucket(records, numGroups, numClasses, func(size int) int {
			return int(ratio * float64(size))
		})
	}
}
