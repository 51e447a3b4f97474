package datasets

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"
)

// TabularSchema declares how the columns of a delimited file map onto a
// TabularRecord.
type TabularSchema struct {
	FeatureColumns []string

	LabelColumn      string
	FavorableClasses []float64

	SensitiveColumn   string
	PrivilegedClasses []float64

	// ProbColumn and WeightColumn are optional.
	ProbColumn   string
	WeightColumn string

	// DropColumns are removed when present; missing ones are ignored.
	DropColumns []string

	// StandardizeColumns is a subset of FeatureColumns scaled with the mean
	// and standard deviation of the train partition.
	StandardizeColumns []string
}

func (s TabularSchema) required() []string {
	cols := append([]string(nil), s.FeatureColumns...)
	cols = append(cols, s.LabelColumn, s.SensitiveColumn)
	if s.ProbColumn != "" {
		cols = append(cols, s.ProbColumn)
	}
	if s.WeightColumn != "" {
		cols = append(cols, s.WeightColumn)
	}
	return cols
}

// TabularRecord is one row of a tabular dataset.
type TabularRecord struct {
	Features []float32
	// Group is 1 for privileged rows.
	Group int
	// Label is 1 for favorable rows.
	Label  int
	Weight float32
	Prob   float32
}

// GroupLabel implements Labeled.
func (r TabularRecord) GroupLabel() GroupLabel {
	return GroupLabel{Group: r.Group, Label: r.Label}
}

// TabularOptions configures NewTabularDataset.
type TabularOptions struct {
	Split string

	// TestRatio is the share of rows held out for testing, 0.2 when zero.
	TestRatio float64
	// SplitSeed seeds the row shuffle that precedes the train/test split.
	SplitSeed int64

	// Delimiter defaults to ','.
	Delimiter rune

	Logger *zap.Logger
}

// TabularDataset is a binary-group, binary-label tabular dataset.
type TabularDataset struct {
	Path   string
	Split  string
	Schema TabularSchema

	NumGroups  int
	NumClasses int

	Features []TabularRecord
	Counts   Counts

	// Mean and Std hold the train statistics of the standardized columns.
	Mean map[string]float64
	Std  map[string]float64

	name string
}

// NewTabularDataset reads path and builds the records of opts.Split.
func NewTabularDataset(name, path string, schema TabularSchema, opts TabularOptions) (*TabularDataset, error) {
	if opts.TestRatio == 0 {
		opts.TestRatio = 0.2
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	log := nopIfNil(opts.Logger).With(zap.String("dataset", name))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	df := dataframe.ReadCSV(bufio.NewReader(file), dataframe.WithDelimiter(opts.Delimiter))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, df.Err)
	}

	names := df.Names()
	for _, col := range schema.required() {
		if !slices.Contains(names, col) {
			return nil, fmt.Errorf("column %q in %s: %w", col, path, ErrMissingColumn)
		}
	}

	var drop []string
	for _, col := range schema.DropColumns {
		if slices.Contains(names, col) {
			drop = append(drop, col)
		}
	}
	if len(drop) > 0 {
		df = df.Drop(drop)
		if df.Err != nil {
			return nil, fmt.Errorf("failed to drop columns: %w", df.Err)
		}
	}

	// rows with a missing value in any used column are dropped
	df = df.Subset(completeRows(df, schema.required()))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to drop incomplete rows: %w", df.Err)
	}

	n := df.Nrow()
	rng := rand.New(rand.NewSource(opts.SplitSeed))
	perm := rng.Perm(n)
	nTrain := int(float64(n) * (1 - opts.TestRatio))
	trainIdx, testIdx := perm[:nTrain], perm[nTrain:]

	d := &TabularDataset{
		Path:       path,
		Split:      opts.Split,
		Schema:     schema,
		NumGroups:  2,
		NumClasses: 2,
		Mean:       make(map[string]float64),
		Std:        make(map[string]float64),
		name:       name,
	}

	if len(trainIdx) > 0 {
		train := df.Subset(trainIdx)
		for _, col := range schema.StandardizeColumns {
			s := train.Col(col)
			d.Mean[col] = s.Mean()
			std := s.StdDev()
			if std == 0 || math.IsNaN(std) {
				std = 1
			}
			d.Std[col] = std
		}
	}

	rows := testIdx
	if opts.Split == SplitTrain {
		rows = trainIdx
	}
	if len(rows) > 0 {
		sel := df.Subset(rows)
		if sel.Err != nil {
			return nil, fmt.Errorf("failed to select %s rows: %w", opts.Split, sel.Err)
		}
		d.Features = d.buildRecords(sel)
	}

	if d.Counts, err = DataCount(d.Features, d.NumGroups, d.NumClasses); err != nil {
		return nil, err
	}
	logCounts(log, opts.Split, d.Counts)
	return d, nil
}

func completeRows(df dataframe.DataFrame, cols []string) []int {
	ok := make([]bool, df.Nrow())
	for i := range ok {
		ok[i] = true
	}
	for _, col := range cols {
		for i, v := range df.Col(col).Float() {
			if math.IsNaN(v) {
				ok[i] = false
			}
		}
	}
	rows := make([]int, 0, len(ok))
	for i, keep := range ok {
		if keep {
			rows = append(rows, i)
		}
	}
	return rows
}

func (d *TabularDataset) buildRecords(df dataframe.DataFrame) []TabularRecord {
	s := d.Schema
	n := df.Nrow()

	records := make([]TabularRecord, n)
	for i := range records {
		records[i] = TabularRecord{
			Features: make([]float32, len(s.FeatureColumns)),
			Weight:   1,
		}
	}

	for j, col := range s.FeatureColumns {
		mean, std := 0.0, 1.0
		if m, ok := d.Mean[col]; ok {
			mean, std = m, d.Std[col]
		}
		for i, v := range df.Col(col).Float() {
			records[i].Features[j] = float32((v - mean) / std)
		}
	}
	for i, v := range df.Col(s.LabelColumn).Float() {
		if slices.Contains(s.FavorableClasses, v) {
			records[i].Label = 1
		}
	}
	for i, v := range df.Col(s.SensitiveColumn).Float() {
		if slices.Contains(s.PrivilegedClasses, v) {
			records[i].Group = 1
		}
	}
	if s.ProbColumn != "" {
		for i, v := range df.Col(s.ProbColumn).Float() {
			records[i].Prob = float32(v)
		}
	}
	if s.WeightColumn != "" {
		for i, v := range df.Col(s.WeightColumn).Float() {
			records[i].Weight = float32(v)
		}
	}
	return records
}

// Name returns the name of the dataset.
func (d *TabularDataset) Name() string {
	return d.name
}

// Len returns the number of rows in the selected split.
func (d *TabularDataset) Len() int {
	return len(d.Features)
}

// Example returns row i with the group as primary and the label as secondary
// target.
func (d *TabularDataset) Example(i int) (Item, error) {
	if i < 0 || i >= len(d.Features) {
		return Item{}, fmt.Errorf("index %d out of range [0, %d)", i, len(d.Features))
	}
	r := d.Features[i]
	return Item{
		Inputs:    r.Features,
		Shape:     []int{len(r.Features)},
		Weight:    r.Weight,
		Primary:   float32(r.Group),
		Secondary: int64(r.Label),
		Index:     i,
	}, nil
}

// L2 voter file columns.
var l2Features = []string{
	"Voters_Gender",
	"Voters_Age",
	"CommercialData_EstimatedHHIncome",
	"CommercialData_EstimatedAreaMedianHHIncome",
	"CommercialData_EstHomeValue",
	"CommercialData_AreaMedianEducationYears",
	"CommercialData_AreaMedianHousingValue",
}

// L2Schema is the schema of the L2 voter file with "black" as the sensitive
// attribute.
func L2Schema() TabularSchema {
	return TabularSchema{
		FeatureColumns:     append([]string(nil), l2Features...),
		LabelColumn:        "General_2016_11_08",
		FavorableClasses:   []float64{1},
		SensitiveColumn:    "black",
		PrivilegedClasses:  []float64{0},
		ProbColumn:         "prob_black",
		DropColumns:        []string{"prob_b", "LALVOTERID"},
		StandardizeColumns: append([]string(nil), l2Features[1:]...),
	}
}

// DefaultL2Filename is the voter file read when no filename is given.
const DefaultL2Filename = "NC_bisg.csv"

// NewL2Dataset loads the L2 voter file under root. Only the "black" target
// attribute is supported. With an empty filename, DefaultL2Filename is read,
// falling back to any other "_bisg" CSV in root.
func NewL2Dataset(root, filename, targetAttr string, opts TabularOptions) (*TabularDataset, error) {
	if targetAttr != "black" {
		return nil, fmt.Errorf("target attribute %q: %w", targetAttr, ErrUnsupportedGroup)
	}

	path := filepath.Join(root, filename)
	if filename == "" {
		path = filepath.Join(root, DefaultL2Filename)
		if _, err := os.Stat(path); err != nil {
			found, ferr := FindCSVInDir(root, "_bisg")
			if ferr != nil {
				return nil, fmt.Errorf("no voter file in %s: %w", root, err)
			}
			path = found
		}
	}
	return NewTabularDataset("l2", path, L2Schema(), opts)
}
