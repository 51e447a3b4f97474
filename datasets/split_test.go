package datasets

import (
	"fmt"
	"testing"
)

func syntheticRecords(perBucket, groups, classes int) []ImageRecord {
	var records []ImageRecord
	for k := range perBucket {
		for g := range groups {
			for l := range classes {
				records = append(records, ImageRecord{
					Group: g, Label: l,
					Path:      fmt.Sprintf("%d_%d_%d.jpg", g, l, k),
					Annotated: true,
				})
			}
		}
	}
	return records
}

func checkPartition(t *testing.T, all, train, test []ImageRecord) {
	t.Helper()
	if len(train)+len(test) != len(all) {
		t.Fatalf("train %d + test %d != %d", len(train), len(test), len(all))
	}
	seen := make(map[string]int)
	for _, r := range train {
		seen[r.Path]++
	}
	for _, r := range test {
		if seen[r.Path] > 0 {
			t.Fatalf("%s is in both train and test", r.Path)
		}
		seen[r.Path]++
	}
	for _, r := range all {
		if seen[r.Path] != 1 {
			t.Fatalf("%s appears %d times in the union", r.Path, seen[r.Path])
		}
	}
}

func TestHoldoutSplit(t *testing.T) {
	all := syntheticRecords(5, 2, 3)

	train, test := HoldoutSplit(2)(all, 2, 3)
	checkPartition(t, all, train, test)

	tc, _ := DataCount(test, 2, 3)
	for g := range 2 {
		for l := range 3 {
			if tc.NumData[g][l] != 2 {
				t.Fatalf("test bucket (%d,%d) has %d records, want 2", g, l, tc.NumData[g][l])
			}
		}
	}

	// the held out records are the last ones of each bucket
	for _, r := range test {
		var k, g, l int
		fmt.Sscanf(r.Path, "%d_%d_%d.jpg", &g, &l, &k)
		if k < 3 {
			t.Fatalf("expected only the last two records per bucket in test, got %s", r.Path)
		}
	}

	// train keeps input order
	held := make(map[string]bool)
	for _, r := range test {
		held[r.Path] = true
	}
	pos := 0
	for _, r := range all {
		if held[r.Path] {
			continue
		}
		if train[pos].Path != r.Path {
			t.Fatalf("train[%d] = %s, want %s", pos, train[pos].Path, r.Path)
		}
		pos++
	}
}

func TestHoldoutSplit_SmallBuckets(t *testing.T) {
	all := syntheticRecords(3, 1, 2)
	train, test := HoldoutSplit(100)(all, 1, 2)
	checkPartition(t, all, train, test)
	if len(train) != 0 {
		t.Fatalf("expected every record held out, train has %d", len(train))
	}
}

func TestRatioSplit(t *testing.T) {
	all := syntheticRecords(10, 2, 2)
	train, test := RatioSplit(0.3)(all, 2, 2)
	checkPartition(t, all, train, test)
	if len(test) != 4*3 {
		t.Fatalf("expected 12 test records, got %d", len(test))
	}
}
