package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FairFace race names mapped onto the UTKFace race codes. Names missing from
// the map (Latino_Hispanic, Middle Eastern) are excluded like UTKFace code 4.
var fairfaceRace = map[string]int{
	"white":           0,
	"black":           1,
	"east asian":      2,
	"southeast asian": 2,
	"indian":          3,
}

var fairfaceGender = map[string]int{
	"male":   0,
	"female": 1,
}

// FairFaceOptions configures LoadFairFace.
type FairFaceOptions struct {
	// Root holds fairface_label_{split}.csv and the image folders the
	// "file" column points into.
	Root  string
	Split string

	Sensitive string
	Target    string

	// NumGroups and NumClasses bound the records kept; records of the
	// auxiliary collection outside the primary collection's domain are
	// counted as excluded.
	NumGroups  int
	NumClasses int

	Logger *zap.Logger
}

// fairfaceAge converts an age range such as "20-29" or "more than 70" into
// the lower bound of the range.
func fairfaceAge(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "more than ")
	lo, _, _ := strings.Cut(s, "-")
	return parseInt(lo)
}

// LoadFairFace reads the FairFace label CSV for opts.Split and returns its
// records in the UTKFace schema, in file order.
func LoadFairFace(opts FairFaceOptions) ([]ImageRecord, DropStats, error) {
	var drops DropStats
	if err := checkAttr(opts.Sensitive); err != nil {
		return nil, drops, err
	}
	if err := checkAttr(opts.Target); err != nil {
		return nil, drops, err
	}
	log := nopIfNil(opts.Logger)

	split := opts.Split
	if split == SplitTest {
		split = "val"
	}
	path := filepath.Join(opts.Root, fmt.Sprintf("fairface_label_%s.csv", split))

	file, err := os.Open(path)
	if err != nil {
		return nil, drops, fmt.Errorf("failed to open fairface labels %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, drops, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range []string{"file", AttrAge, AttrGender, AttrRace} {
		if _, ok := colIndex[col]; !ok {
			return nil, drops, fmt.Errorf("column %q in %s: %w", col, path, ErrMissingColumn)
		}
	}

	var records []ImageRecord
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, drops, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		row++

		age, err := fairfaceAge(record[colIndex[AttrAge]])
		if err != nil {
			drops.Incomplete++
			continue
		}
		gender, okG := fairfaceGender[strings.ToLower(strings.TrimSpace(record[colIndex[AttrGender]]))]
		race, okR := fairfaceRace[strings.ToLower(strings.TrimSpace(record[colIndex[AttrRace]]))]
		if !okG {
			drops.Incomplete++
			continue
		}
		if !okR {
			drops.Excluded++
			continue
		}

		attrs := faceAttrs{age, gender, race}
		r := ImageRecord{
			Group:     attrValue(attrs, opts.Sensitive),
			Label:     attrValue(attrs, opts.Target),
			Path:      filepath.Join(opts.Root, record[colIndex["file"]]),
			Annotated: true,
		}
		if r.Group >= opts.NumGroups || r.Label >= opts.NumClasses {
			drops.Excluded++
			continue
		}
		records = append(records, r)
	}

	log.Debug("loaded fairface labels",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("incomplete", drops.Incomplete),
		zap.Int("excluded", drops.Excluded),
	)
	return records, drops, nil
}
