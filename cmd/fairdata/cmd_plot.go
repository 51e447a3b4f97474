package main

import (
	"fmt"
	"path/filepath"

	"github.com/Noofbiz/fairdata/datasets"
	"github.com/Noofbiz/fairdata/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var raceNames = []string{"white", "black", "asian", "indian"}

// plotCmd writes bar charts of the group/label distribution
var plotCmd = &cobra.Command{
	Use:       "plot [tabular|images]",
	Short:     "Plot the group/label distribution of a dataset",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tabular", "images"},
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := cfg.Report.OutDir

		switch args[0] {
		case "tabular":
			ds, err := loadTabular(cfg, split, logger)
			if err != nil {
				return err
			}
			out := filepath.Join(outDir, fmt.Sprintf("l2_%s.png", split))
			names := []string{"unprivileged", "privileged"}
			if err := report.PlotCounts(ds.Counts, names, "L2 "+split, out); err != nil {
				return err
			}
			logger.Info("wrote plot", zap.String("path", out))

		case "images":
			ds, err := loadImages(cfg, split, logger)
			if err != nil {
				return err
			}
			var names []string
			if cfg.Images.Sensitive == datasets.AttrRace && !datasets.IsGroupVersion(ds.Version) {
				names = raceNames
			}
			out := filepath.Join(outDir, fmt.Sprintf("%s_%s.png", ds.Name(), split))
			if err := report.PlotCounts(ds.Counts, names, ds.Name()+" "+split, out); err != nil {
				return err
			}
			logger.Info("wrote plot", zap.String("path", out))

			if ds.AuxCounts != nil {
				auxOut := filepath.Join(outDir, "fairface_"+split+".png")
				if err := report.PlotCounts(*ds.AuxCounts, names, "fairface "+split, auxOut); err != nil {
					return err
				}
				logger.Info("wrote plot", zap.String("path", auxOut))
			}

		default:
			return fmt.Errorf("unknown dataset %q", args[0])
		}
		return nil
	},
}
