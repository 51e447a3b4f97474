package datasets

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFairfaceAge(t *testing.T) {
	cases := map[string]int{"0-2": 0, "3-9": 3, "20-29": 20, "more than 70": 70, " 40-49 ": 40}
	for in, want := range cases {
		got, err := fairfaceAge(in)
		if err != nil {
			t.Fatalf("fairfaceAge(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("fairfaceAge(%q) = %d, want %d", in, got, want)
		}
	}
	if _, err := fairfaceAge("unknown"); err == nil {
		t.Fatalf("expected an error for a non-numeric age")
	}
}

func TestLoadFairFace(t *testing.T) {
	root := writeFairFace(t)

	records, drops, err := LoadFairFace(FairFaceOptions{
		Root: root, Split: SplitTrain, Sensitive: AttrRace, Target: AttrAge,
		NumGroups: 4, NumClasses: 3,
	})
	if err != nil {
		t.Fatalf("LoadFairFace failed: %v", err)
	}
	want := []ImageRecord{
		{Group: 0, Label: 1, Path: filepath.Join(root, "train/1.jpg"), Annotated: true},
		{Group: 1, Label: 2, Path: filepath.Join(root, "train/2.jpg"), Annotated: true},
		{Group: 3, Label: 0, Path: filepath.Join(root, "train/4.jpg"), Annotated: true},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
	if drops.Excluded != 1 || drops.Incomplete != 0 {
		t.Fatalf("unexpected drop stats: %+v", drops)
	}
}

func TestLoadFairFace_OutsideDomain(t *testing.T) {
	root := writeFairFace(t)

	// only two age classes known: the "more than 70" row cannot be kept
	records, drops, err := LoadFairFace(FairFaceOptions{
		Root: root, Split: SplitTrain, Sensitive: AttrRace, Target: AttrAge,
		NumGroups: 4, NumClasses: 2,
	})
	if err != nil {
		t.Fatalf("LoadFairFace failed: %v", err)
	}
	if len(records) != 2 || drops.Excluded != 2 {
		t.Fatalf("expected 2 records and 2 exclusions, got %d and %+v", len(records), drops)
	}
}

func TestLoadFairFace_MissingColumn(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, filepath.Join(root, "fairface_label_val.csv"), "file,age,race", []string{"val/1.jpg,3-9,White"})

	_, _, err := LoadFairFace(FairFaceOptions{
		Root: root, Split: SplitTest, Sensitive: AttrRace, Target: AttrAge, NumGroups: 4, NumClasses: 3,
	})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
