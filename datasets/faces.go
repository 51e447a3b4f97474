package datasets

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Face attributes encoded in UTKFace filenames, in token order.
const (
	AttrAge    = "age"
	AttrGender = "gender"
	AttrRace   = "race"
)

var feaMap = map[string]int{
	AttrAge:    0,
	AttrGender: 1,
	AttrRace:   2,
}

// raceOthers is the UTKFace race code dropped from every collection.
const raceOthers = 4

// ImageRecord is one face image with its derived group and label.
type ImageRecord struct {
	Group int
	Label int
	Path  string

	// Annotated is false only for records SSLProcessing placed in the
	// non-annotated pool.
	Annotated bool
}

// GroupLabel implements Labeled.
func (r ImageRecord) GroupLabel() GroupLabel {
	return GroupLabel{Group: r.Group, Label: r.Label}
}

// AgeBucket maps an age in years to one of three classes.
func AgeBucket(age int) int {
	switch {
	case age < 20:
		return 0
	case age < 40:
		return 1
	default:
		return 2
	}
}

// DropStats counts filenames discarded while building a collection.
type DropStats struct {
	// Incomplete filenames do not split into exactly four tokens with
	// integer age, gender and race.
	Incomplete int
	// Excluded filenames carry the race code that is filtered out.
	Excluded int
}

// Total returns the number of dropped filenames.
func (d DropStats) Total() int {
	return d.Incomplete + d.Excluded
}

// faceAttrs holds the integer tokens of a UTKFace filename.
type faceAttrs [3]int

func (a faceAttrs) get(attr string) int {
	return a[feaMap[attr]]
}

// parseFaceFilename splits "{age}_{gender}_{race}_{rest}" into its integer
// tokens. ok is false when the name is malformed.
func parseFaceFilename(name string) (attrs faceAttrs, ok bool) {
	tokens := strings.Split(filepath.Base(name), "_")
	if len(tokens) != 4 {
		return attrs, false
	}
	for i := range attrs {
		v, err := parseInt(tokens[i])
		if err != nil {
			return attrs, false
		}
		attrs[i] = v
	}
	return attrs, true
}

// attrValue returns the class of attr, bucketing ages.
func attrValue(attrs faceAttrs, attr string) int {
	v := attrs.get(attr)
	if attr == AttrAge {
		return AgeBucket(v)
	}
	return v
}

// attrCardinality returns the number of classes of attr. The age cardinality
// depends on the buckets actually observed.
func attrCardinality(attr string, maxAgeBucket int) int {
	switch attr {
	case AttrGender:
		return 2
	case AttrRace:
		return 4
	default:
		return maxAgeBucket + 1
	}
}

func checkAttr(attr string) error {
	if _, ok := feaMap[attr]; !ok {
		return fmt.Errorf("%q: %w", attr, ErrUnknownAttribute)
	}
	return nil
}

// ParseFaceRecords filters and converts UTKFace filenames into records with
// the given sensitive and target attributes. Filenames are joined to root.
// It also returns the highest age bucket seen among the kept names.
func ParseFaceRecords(root string, filenames []string, sensitive, target string) ([]ImageRecord, DropStats, int, error) {
	var drops DropStats
	if err := checkAttr(sensitive); err != nil {
		return nil, drops, 0, err
	}
	if err := checkAttr(target); err != nil {
		return nil, drops, 0, err
	}

	records := make([]ImageRecord, 0, len(filenames))
	maxAge := 0
	for _, name := range filenames {
		attrs, ok := parseFaceFilename(name)
		if !ok {
			drops.Incomplete++
			continue
		}
		if attrs.get(AttrRace) == raceOthers {
			drops.Excluded++
			continue
		}
		maxAge = max(maxAge, AgeBucket(attrs.get(AttrAge)))
		records = append(records, ImageRecord{
			Group:     attrValue(attrs, sensitive),
			Label:     attrValue(attrs, target),
			Path:      filepath.Join(root, name),
			Annotated: true,
		})
	}
	return records, drops, maxAge, nil
}
