package main

// Example command that loads the L2 voter file and the UTKFace/FairFace
// training split, then walks one epoch of each through a Loader to show the
// gomlx tensors a training loop receives.
//
// Usage:
//   go run ./datasets/example -l2 ./data/l2 -utk ./data/UTKFace
//
// Either dataset is skipped with a note when its files are missing.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/Noofbiz/fairdata/datasets"
)

func main() {
	l2Root := flag.String("l2", "./data/l2", "directory holding the L2 csv")
	utkRoot := flag.String("utk", "./data/UTKFace", "UTKFace image directory")
	ffRoot := flag.String("fairface", datasets.DefaultFairFaceRoot, "FairFace root (empty disables the merge)")
	batchSize := flag.Int("batch", 8, "batch size")
	flag.Parse()

	l2, err := datasets.NewL2Dataset(*l2Root, "", "black", datasets.TabularOptions{Split: datasets.SplitTrain})
	if err != nil {
		fmt.Printf("Note: could not load L2 dataset: %v\n", err)
	} else {
		fmt.Printf("L2 train examples: %d (features: %v)\n", l2.Len(), l2.Schema.FeatureColumns)
		if err := firstBatches(datasets.NewLoader(l2.Name(), l2, *batchSize, true, 0), 2); err != nil {
			log.Fatalf("l2 loader: %v", err)
		}
	}

	fmt.Println()

	faces, err := datasets.NewUTKFaceFairface(datasets.UTKFaceFairfaceOptions{
		Root:         *utkRoot,
		Split:        datasets.SplitTrain,
		SVRatio:      0.5,
		FairFaceRoot: *ffRoot,
	})
	if err != nil {
		fmt.Printf("Note: could not load UTKFace dataset: %v\n", err)
	} else {
		fmt.Printf("UTKFace train examples: %d (%d groups x %d classes)\n",
			faces.Len(), faces.NumGroups, faces.NumClasses)
		fmt.Printf("  dropped: %d incomplete, %d excluded\n", faces.Drops.Incomplete, faces.Drops.Excluded)
		if err := firstBatches(datasets.NewLoader(faces.Name(), faces, *batchSize, true, faces.Seed), 1); err != nil {
			log.Fatalf("faces loader: %v", err)
		}
	}
}

// firstBatches prints the tensor shapes of up to n batches.
func firstBatches(loader *datasets.Loader, n int) error {
	for i := range n {
		_, inputs, labels, err := loader.Yield()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("  batch %d: input=%v secondary=%v primary=%v weights=%v\n", i,
			inputs[0].Shape(), labels[0].Shape(), labels[1].Shape(), labels[2].Shape())
	}
	return nil
}
