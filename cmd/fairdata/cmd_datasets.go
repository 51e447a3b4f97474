package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Noofbiz/fairdata/config"
	"github.com/Noofbiz/fairdata/datasets"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	split   string
	version string
	svRatio float64
)

var tabularCmd = &cobra.Command{
	Use:   "tabular",
	Short: "Load the L2 voter file and print its group/label counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadTabular(cfg, split, logger)
		if err != nil {
			return err
		}
		printCounts(cmd.OutOrStdout(), fmt.Sprintf("l2 (%s)", split), ds.Counts)
		return nil
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Load UTKFace (plus FairFace) and print its group/label counts",
	Long: `Scans the UTKFace directory, applies the filename filters, the fixed
seed-1 shuffle and the per-bucket split, merges FairFace for training and
group runs, and applies semi-supervised subsampling when sv_ratio < 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadImages(cfg, split, logger)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		printCounts(w, fmt.Sprintf("%s (%s)", ds.Name(), split), ds.Counts)
		fmt.Fprintf(w, "dropped: %s incomplete, %s excluded\n",
			humanize.Comma(int64(ds.Drops.Incomplete)), humanize.Comma(int64(ds.Drops.Excluded)))
		if ds.AuxCounts != nil {
			printCounts(w, "fairface only", *ds.AuxCounts)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{tabularCmd, imagesCmd, plotCmd} {
		c.Flags().StringVar(&split, "split", datasets.SplitTrain, "split to load (train or test)")
	}
	for _, c := range []*cobra.Command{imagesCmd, plotCmd} {
		c.Flags().StringVar(&version, "version", "", "training variant; a value containing \"group\" selects group classification")
		c.Flags().Float64Var(&svRatio, "sv-ratio", 0, "supervision ratio (overrides the config when > 0)")
	}
}

func loadTabular(cfg *config.Config, split string, log *zap.Logger) (*datasets.TabularDataset, error) {
	return datasets.NewL2Dataset(cfg.Tabular.Root, cfg.Tabular.Filename, cfg.Tabular.TargetAttr, datasets.TabularOptions{
		Split:     split,
		TestRatio: cfg.Tabular.TestRatio,
		SplitSeed: cfg.Tabular.SplitSeed,
		Logger:    log,
	})
}

func loadImages(cfg *config.Config, split string, log *zap.Logger) (*datasets.UTKFaceFairface, error) {
	ic := cfg.Images
	if version != "" {
		ic.Version = version
	}
	if svRatio > 0 {
		ic.SVRatio = svRatio
	}

	splitFunc := datasets.HoldoutSplit(ic.HoldoutPerBucket)
	if ic.TestRatio > 0 {
		splitFunc = datasets.RatioSplit(ic.TestRatio)
	}

	return datasets.NewUTKFaceFairface(datasets.UTKFaceFairfaceOptions{
		Root:         ic.Root,
		Split:        split,
		Version:      ic.Version,
		Seed:         ic.Seed,
		SVRatio:      ic.SVRatio,
		Sensitive:    ic.Sensitive,
		Target:       ic.Target,
		FairFaceRoot: ic.FairFaceRoot,
		SplitFunc:    splitFunc,
		Logger:       log,
	})
}

// printCounts writes one row per group with the count of every label.
func printCounts(w io.Writer, title string, c datasets.Counts) {
	fmt.Fprintf(w, "%s: %s records, %d groups x %d classes\n",
		title, humanize.Comma(int64(c.Total())), c.NumGroups, c.NumClasses)
	for g, row := range c.NumData {
		cells := make([]string, len(row))
		for l, n := range row {
			cells[l] = humanize.Comma(int64(n))
		}
		fmt.Fprintf(w, "  group %d: %s\n", g, strings.Join(cells, "\t"))
	}
}
