package datasets

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
)

// shuffleSeed fixes the primary shuffle so every run sees the same train/test
// partition regardless of the configured seed.
const shuffleSeed = 1

// DefaultFairFaceRoot is where the FairFace collection is expected by the
// command line tools.
const DefaultFairFaceRoot = "./data/fairface"

// UTKFaceFairfaceOptions configures NewUTKFaceFairface.
type UTKFaceFairfaceOptions struct {
	Root    string
	Split   string
	Version string
	Seed    int64

	// SVRatio is the supervision ratio; 0 is treated as 1 (fully supervised).
	SVRatio float64

	// Sensitive and Target default to race and age.
	Sensitive string
	Target    string

	// FairFaceRoot enables the auxiliary merge for train and group runs.
	FairFaceRoot string

	// SplitFunc defaults to HoldoutSplit(100).
	SplitFunc SplitFunc

	// Pipeline defaults to TrainPipeline for the train split and
	// TestPipeline otherwise.
	Pipeline *Pipeline

	Logger *zap.Logger
}

// UTKFaceFairface serves UTKFace face images, optionally extended with the
// FairFace collection as a non-annotated pool.
type UTKFaceFairface struct {
	Root    string
	Split   string
	Version string
	Seed    int64
	SVRatio float64

	NumGroups  int
	NumClasses int

	Features []ImageRecord
	Counts   Counts

	// Drops counts the UTKFace filenames that were filtered out.
	Drops DropStats

	// IdxsDict is set when the auxiliary collection was merged.
	IdxsDict *IdxsDict
	// AuxCounts is the distribution of the auxiliary collection alone.
	AuxCounts *Counts

	pipeline Pipeline
	augRng   *rand.Rand
	log      *zap.Logger

	// swapped is set once SSLProcessing exchanged group and label on the
	// records of a group-variant collection.
	swapped bool
}

// NewUTKFaceFairface scans opts.Root and builds the collection for
// opts.Split.
func NewUTKFaceFairface(opts UTKFaceFairfaceOptions) (*UTKFaceFairface, error) {
	if opts.Sensitive == "" {
		opts.Sensitive = AttrRace
	}
	if opts.Target == "" {
		opts.Target = AttrAge
	}
	if opts.SVRatio == 0 {
		opts.SVRatio = 1
	}
	if opts.SVRatio < 0 || opts.SVRatio > 1 {
		return nil, fmt.Errorf("sv ratio %v: %w", opts.SVRatio, ErrInvalidRatio)
	}
	if opts.SplitFunc == nil {
		opts.SplitFunc = HoldoutSplit(100)
	}

	d := &UTKFaceFairface{
		Root:    opts.Root,
		Split:   opts.Split,
		Version: opts.Version,
		Seed:    opts.Seed,
		SVRatio: opts.SVRatio,
		augRng:  rand.New(rand.NewSource(opts.Seed)),
		log:     nopIfNil(opts.Logger).With(zap.String("dataset", "utkface_fairface")),
	}
	switch {
	case opts.Pipeline != nil:
		d.pipeline = *opts.Pipeline
	case opts.Split == SplitTrain:
		d.pipeline = TrainPipeline()
	default:
		d.pipeline = TestPipeline()
	}

	filenames, err := listFiles(opts.Root, ".jpg")
	if err != nil {
		return nil, err
	}
	records, drops, maxAge, err := ParseFaceRecords(opts.Root, filenames, opts.Sensitive, opts.Target)
	if err != nil {
		return nil, err
	}
	d.Drops = drops
	d.NumGroups = attrCardinality(opts.Sensitive, maxAge)
	d.NumClasses = attrCardinality(opts.Target, maxAge)
	d.log.Debug("scanned images",
		zap.Int("files", len(filenames)),
		zap.Int("kept", len(records)),
		zap.Int("incomplete", drops.Incomplete),
		zap.Int("excluded", drops.Excluded),
	)

	rng := rand.New(rand.NewSource(shuffleSeed))
	shuffle(rng, records)

	train, test := opts.SplitFunc(records, d.NumGroups, d.NumClasses)
	// a group classifier never uses the held-out test split; its own
	// validation data comes out of the training split
	group := IsGroupVersion(opts.Version)
	if opts.Split == SplitTrain || group {
		d.Features = train
	} else {
		d.Features = test
	}
	if d.Counts, err = DataCount(d.Features, d.NumGroups, d.NumClasses); err != nil {
		return nil, err
	}
	logCounts(d.log, opts.Split, d.Counts)

	if (opts.Split == SplitTrain || group) && opts.FairFaceRoot != "" {
		if err := d.mergeFairFace(opts, rng); err != nil {
			return nil, err
		}
	}

	if d.SVRatio < 1 {
		sslRng := rand.New(rand.NewSource(opts.Seed))
		d.Features, d.Counts, err = SSLProcessing(d.Features, d.Counts, d.IdxsDict, SSLOptions{
			Ratio:        d.SVRatio,
			Split:        opts.Split,
			GroupVariant: group,
			Rng:          sslRng,
		})
		if err != nil {
			return nil, fmt.Errorf("ssl processing: %w", err)
		}
		if group {
			d.NumGroups, d.NumClasses = d.NumClasses, d.NumGroups
			d.swapped = true
		}
	}

	return d, nil
}

// mergeFairFace appends the FairFace training records as the non-annotated
// pool. rng continues the sequence used for the primary shuffle.
func (d *UTKFaceFairface) mergeFairFace(opts UTKFaceFairfaceOptions, rng *rand.Rand) error {
	aux, auxDrops, err := LoadFairFace(FairFaceOptions{
		Root:       opts.FairFaceRoot,
		Split:      SplitTrain,
		Sensitive:  opts.Sensitive,
		Target:     opts.Target,
		NumGroups:  d.NumGroups,
		NumClasses: d.NumClasses,
		Logger:     d.log,
	})
	if err != nil {
		return err
	}
	shuffle(rng, aux)

	auxCounts, err := DataCount(aux, d.NumGroups, d.NumClasses)
	if err != nil {
		return err
	}
	d.AuxCounts = &auxCounts
	d.log.Info("counted fairface data",
		zap.Int("total", auxCounts.Total()),
		zap.Int("dropped", auxDrops.Total()),
	)

	offset := len(d.Features)
	idxs := NewIdxsDict()
	for g := range d.NumGroups {
		for l := range d.NumClasses {
			gl := GroupLabel{Group: g, Label: l}
			idxs.Annotated[gl] = append([]int(nil), d.Counts.IdxsPerGroup[gl]...)
			shifted := make([]int, 0, len(auxCounts.IdxsPerGroup[gl]))
			for _, i := range auxCounts.IdxsPerGroup[gl] {
				shifted = append(shifted, i+offset)
			}
			idxs.NonAnnotated[gl] = shifted
		}
	}
	d.IdxsDict = idxs

	d.Features = append(d.Features, aux...)
	d.Counts, err = DataCount(d.Features, d.NumGroups, d.NumClasses)
	if err != nil {
		return err
	}
	logCounts(d.log, opts.Split, d.Counts)
	return nil
}

// Name returns the name of the dataset.
func (d *UTKFaceFairface) Name() string {
	return "utkface_fairface"
}

// Len returns the number of records in the selected split.
func (d *UTKFaceFairface) Len() int {
	return len(d.Features)
}

// Example decodes and transforms the image at index i.
func (d *UTKFaceFairface) Example(i int) (Item, error) {
	if i < 0 || i >= len(d.Features) {
		return Item{}, fmt.Errorf("index %d out of range [0, %d)", i, len(d.Features))
	}
	r := d.Features[i]

	img, err := LoadRGB(r.Path)
	if err != nil {
		return Item{}, err
	}
	inputs, shape := d.pipeline.Apply(img, d.augRng)

	item := Item{
		Inputs: inputs,
		Shape:  shape,
		Weight: 1,
		Index:  i,
		Path:   r.Path,
	}
	switch {
	case d.swapped:
		// records already hold the target attribute as group
		item.Primary = float32(r.Group)
		item.Secondary = int64(r.Label)
	case IsGroupVersion(d.Version):
		item.Primary = float32(r.Label)
		item.Secondary = int64(r.Group)
	default:
		item.Primary = float32(r.Group)
		if !r.Annotated {
			item.Primary = -1
		}
		item.Secondary = int64(r.Label)
	}
	return item, nil
}

func shuffle[R any](rng *rand.Rand, records []R) {
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}
