package datasets

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

const l2Header = "LALVOTERID,Voters_Gender,Voters_Age,CommercialData_EstimatedHHIncome," +
	"CommercialData_EstimatedAreaMedianHHIncome,CommercialData_EstHomeValue," +
	"CommercialData_AreaMedianEducationYears,CommercialData_AreaMedianHousingValue," +
	"black,prob_black,General_2016_11_08"

// writeL2 writes n voter rows. Row i is black when i%2==1 and voted when
// i%3==0.
func writeL2(t *testing.T, dir string, n int) {
	t.Helper()
	rows := make([]string, n)
	for i := range n {
		black := i % 2
		voted := 0
		if i%3 == 0 {
			voted = 1
		}
		rows[i] = fmt.Sprintf("LAL%d,%d,%d,%d,%d,%d,%d,%d,%d,0.%d,%d",
			i, i%2, 20+i, 40000+100*i, 50000, 150000+10*i, 12+i%4, 180000, black, i%10, voted)
	}
	writeCSV(t, filepath.Join(dir, DefaultL2Filename), l2Header, rows)
}

func TestNewL2Dataset_UnsupportedGroup(t *testing.T) {
	_, err := NewL2Dataset(t.TempDir(), "", "white", TabularOptions{Split: SplitTrain})
	if !errors.Is(err, ErrUnsupportedGroup) {
		t.Fatalf("expected ErrUnsupportedGroup, got %v", err)
	}
}

func TestNewL2Dataset_Splits(t *testing.T) {
	dir := t.TempDir()
	writeL2(t, dir, 50)

	train, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTrain})
	if err != nil {
		t.Fatalf("NewL2Dataset(train) failed: %v", err)
	}
	test, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTest})
	if err != nil {
		t.Fatalf("NewL2Dataset(test) failed: %v", err)
	}

	if train.Len() != 40 || test.Len() != 10 {
		t.Fatalf("expected 40/10 split, got %d/%d", train.Len(), test.Len())
	}
	if train.NumGroups != 2 || train.NumClasses != 2 {
		t.Fatalf("unexpected dims %dx%d", train.NumGroups, train.NumClasses)
	}
	checkCounts(t, train.Features, train.Counts)
	checkCounts(t, test.Features, test.Counts)

	if len(train.Features[0].Features) != len(l2Features) {
		t.Fatalf("expected %d features, got %d", len(l2Features), len(train.Features[0].Features))
	}

	// over both splits: 25 black rows (group 0) and 17 voters (label 1)
	groups, labels := 0, 0
	for _, ds := range []*TabularDataset{train, test} {
		for _, r := range ds.Features {
			groups += r.Group
			labels += r.Label
		}
	}
	if groups != 25 {
		t.Fatalf("expected 25 privileged rows, got %d", groups)
	}
	if labels != 17 {
		t.Fatalf("expected 17 favorable rows, got %d", labels)
	}
}

func TestNewL2Dataset_Standardized(t *testing.T) {
	dir := t.TempDir()
	writeL2(t, dir, 40)

	train, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTrain})
	if err != nil {
		t.Fatalf("NewL2Dataset failed: %v", err)
	}

	// Voters_Age is standardized on the train split: its mean must be ~0
	var sum float64
	for _, r := range train.Features {
		sum += float64(r.Features[1])
	}
	if mean := sum / float64(train.Len()); math.Abs(mean) > 1e-4 {
		t.Fatalf("standardized age mean = %v, want ~0", mean)
	}

	// Voters_Gender is not standardized
	for _, r := range train.Features {
		if r.Features[0] != 0 && r.Features[0] != 1 {
			t.Fatalf("gender should keep its raw value, got %v", r.Features[0])
		}
	}

	// a constant column gets std 1 instead of dividing by zero
	if std := train.Std["CommercialData_EstimatedAreaMedianHHIncome"]; std != 1 {
		t.Fatalf("expected std 1 for a constant column, got %v", std)
	}
}

func TestNewL2Dataset_Example(t *testing.T) {
	dir := t.TempDir()
	writeL2(t, dir, 10)

	ds, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTrain})
	if err != nil {
		t.Fatalf("NewL2Dataset failed: %v", err)
	}
	item, err := ds.Example(2)
	if err != nil {
		t.Fatalf("Example(2) error: %v", err)
	}
	r := ds.Features[2]
	if item.Primary != float32(r.Group) || item.Secondary != int64(r.Label) || item.Weight != 1 {
		t.Fatalf("unexpected item %+v for record %+v", item, r)
	}
	if len(item.Shape) != 1 || item.Shape[0] != len(l2Features) {
		t.Fatalf("unexpected shape %v", item.Shape)
	}
	if r.Prob < 0 || r.Prob >= 1 {
		t.Fatalf("prob_black not carried: %v", r.Prob)
	}
	if _, err := ds.Example(-1); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestNewTabularDataset_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, DefaultL2Filename), "Voters_Age,black", []string{"30,1"})

	_, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTrain})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestNewTabularDataset_MissingFile(t *testing.T) {
	_, err := NewL2Dataset(t.TempDir(), "nope.csv", "black", TabularOptions{Split: SplitTrain})
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestNewTabularDataset_DropsIncompleteRows(t *testing.T) {
	dir := t.TempDir()
	writeL2(t, dir, 10)
	f, err := os.OpenFile(filepath.Join(dir, DefaultL2Filename), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("LAL99,1,NA,1,1,1,1,1,1,0.5,1\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	train, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTrain})
	if err != nil {
		t.Fatalf("NewL2Dataset failed: %v", err)
	}
	test, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTest})
	if err != nil {
		t.Fatalf("NewL2Dataset failed: %v", err)
	}
	if train.Len()+test.Len() != 10 {
		t.Fatalf("expected the NA row to be dropped, got %d rows", train.Len()+test.Len())
	}
}

func TestNewL2Dataset_FallbackFile(t *testing.T) {
	dir := t.TempDir()
	writeL2(t, dir, 10)
	if err := os.Rename(filepath.Join(dir, DefaultL2Filename), filepath.Join(dir, "GA_bisg.csv")); err != nil {
		t.Fatal(err)
	}

	ds, err := NewL2Dataset(dir, "", "black", TabularOptions{Split: SplitTrain})
	if err != nil {
		t.Fatalf("NewL2Dataset failed: %v", err)
	}
	if ds.Path != filepath.Join(dir, "GA_bisg.csv") {
		t.Fatalf("expected the fallback file, got %s", ds.Path)
	}

	if _, err := NewL2Dataset(t.TempDir(), "", "black", TabularOptions{Split: SplitTrain}); err == nil {
		t.Fatalf("expected an error for a directory without a voter file")
	}
}
