package datasets

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// IdxsDict partitions record indices of every bucket into annotated records
// (ground-truth group known) and non-annotated ones (the supervision pool).
type IdxsDict struct {
	Annotated    map[GroupLabel][]int
	NonAnnotated map[GroupLabel][]int
}

// NewIdxsDict returns an empty partition.
func NewIdxsDict() *IdxsDict {
	return &IdxsDict{
		Annotated:    make(map[GroupLabel][]int),
		NonAnnotated: make(map[GroupLabel][]int),
	}
}

// SSLOptions drives SSLProcessing.
type SSLOptions struct {
	// Ratio is the fraction of each bucket kept as annotated.
	Ratio float64
	// Split is the split the calling dataset serves.
	Split string
	// GroupVariant selects the group-classification variant.
	GroupVariant bool
	// Rng must be seeded by the caller.
	Rng *rand.Rand
}

// IsGroupVersion reports whether a version string requests the
// group-classification variant.
func IsGroupVersion(version string) bool {
	return strings.Contains(version, "group")
}

// SSLProcessing selects the annotated subset of records for semi-supervised
// training.
//
// Without idxs, each bucket is shuffled and its first int(Ratio*n) indices
// become annotated. With idxs, the annotated pool of each bucket is shuffled
// and trimmed the same way; the trimmed indices join the non-annotated pool.
//
// In the group variant the train split keeps only annotated records and every
// other split keeps only non-annotated records; group and label are swapped
// on the kept records, so the returned Counts has its dimensions swapped too.
// Otherwise every record is kept and its Annotated flag is set from the
// partition.
func SSLProcessing(records []ImageRecord, counts Counts, idxs *IdxsDict, opts SSLOptions) ([]ImageRecord, Counts, error) {
	if opts.Ratio <= 0 || opts.Ratio >= 1 {
		return nil, Counts{}, fmt.Errorf("ratio %v: %w", opts.Ratio, ErrInvalidRatio)
	}
	if opts.Split == SplitTest && !opts.GroupVariant {
		return records, counts, nil
	}
	if opts.Rng == nil {
		return nil, Counts{}, fmt.Errorf("ssl processing needs a seeded generator")
	}

	part := pickAnnotated(counts, idxs, opts.Ratio, opts.Rng)

	if opts.GroupVariant {
		pool := part.NonAnnotated
		if opts.Split == SplitTrain {
			pool = part.Annotated
		}
		kept := make([]int, 0, len(records))
		for _, idx := range pool {
			kept = append(kept, idx...)
		}
		sort.Ints(kept)

		out := make([]ImageRecord, 0, len(kept))
		for _, idx := range kept {
			r := records[idx]
			r.Group, r.Label = r.Label, r.Group
			out = append(out, r)
		}
		c, err := DataCount(out, counts.NumClasses, counts.NumGroups)
		if err != nil {
			return nil, Counts{}, err
		}
		return out, c, nil
	}

	out := make([]ImageRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].Annotated = false
	}
	for _, idx := range part.Annotated {
		for _, i := range idx {
			out[i].Annotated = true
		}
	}
	c, err := DataCount(out, counts.NumGroups, counts.NumClasses)
	if err != nil {
		return nil, Counts{}, err
	}
	return out, c, nil
}

// pickAnnotated builds the annotated/non-annotated partition. Buckets are
// visited in (group,label) order so the generator is consumed reproducibly.
func pickAnnotated(counts Counts, idxs *IdxsDict, ratio float64, rng *rand.Rand) *IdxsDict {
	part := NewIdxsDict()
	for g := range counts.NumGroups {
		for l := range counts.NumClasses {
			gl := GroupLabel{Group: g, Label: l}

			var pool, rest []int
			if idxs != nil {
				pool = append(pool, idxs.Annotated[gl]...)
				rest = append(rest, idxs.NonAnnotated[gl]...)
			} else {
				pool = append(pool, counts.IdxsPerGroup[gl]...)
			}

			rng.Shuffle(len(pool), func(i, j int) {
				pool[i], pool[j] = pool[j], pool[i]
			})
			n := int(ratio * float64(len(pool)))

			part.Annotated[gl] = pool[:n]
			part.NonAnnotated[gl] = append(rest, pool[n:]...)
		}
	}
	return part
}
