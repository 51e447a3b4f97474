package datasets

import (
	"fmt"
	"io"
	"math/rand"
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Batch reads the items at indices from ds.
func Batch(ds Dataset, indices []int) ([]Item, error) {
	items := make([]Item, len(indices))
	for i, idx := range indices {
		item, err := ds.Example(idx)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", idx, err)
		}
		items[i] = item
	}
	return items, nil
}

// BatchFlat stores a batch in flat contiguous buffers
type BatchFlat struct {
	Inputs    []float32
	Primary   []float32
	Secondary []int64
	Weights   []float32
	Indices   []int
	BatchSize int
	ItemShape []int
	InputDim  int
}

// MakeBatchFlat flattens a batch into contiguous buffers. All items must share
// the same shape.
func MakeBatchFlat(items []Item) (*BatchFlat, error) {
	if len(items) == 0 {
		return &BatchFlat{}, nil
	}

	shape := items[0].Shape
	inputDim := len(items[0].Inputs)
	b := &BatchFlat{
		Inputs:    make([]float32, len(items)*inputDim),
		Primary:   make([]float32, len(items)),
		Secondary: make([]int64, len(items)),
		Weights:   make([]float32, len(items)),
		Indices:   make([]int, len(items)),
		BatchSize: len(items),
		ItemShape: slices.Clone(shape),
		InputDim:  inputDim,
	}

	for i, it := range items {
		if !slices.Equal(it.Shape, shape) || len(it.Inputs) != inputDim {
			return nil, fmt.Errorf("inconsistent shapes: item 0 has shape %v, item %d has shape %v",
				shape, i, it.Shape)
		}
		copy(b.Inputs[i*inputDim:], it.Inputs)
		b.Primary[i] = it.Primary
		b.Secondary[i] = it.Secondary
		b.Weights[i] = it.Weight
		b.Indices[i] = it.Index
	}
	return b, nil
}

// ToGomlxTensors converts the batch into an inputs tensor of shape
// [BatchSize, InputDim] and the primary (float32) and secondary (int64)
// target tensors of shape [BatchSize]. An empty batch gives tensors with a
// zero batch axis.
func (b *BatchFlat) ToGomlxTensors() (inputs, primary, secondary *tensors.Tensor, err error) {
	if len(b.Inputs) != b.BatchSize*b.InputDim {
		return nil, nil, nil, fmt.Errorf("batch holds %d inputs, want %d x %d", len(b.Inputs), b.BatchSize, b.InputDim)
	}
	return tensors.FromFlatDataAndDimensions(b.Inputs, b.BatchSize, b.InputDim),
		tensors.FromFlatDataAndDimensions(b.Primary, b.BatchSize),
		tensors.FromFlatDataAndDimensions(b.Secondary, b.BatchSize), nil
}

// Loader iterates a Dataset in batches and follows gomlx's train.Dataset
// interface: Yield returns io.EOF once every example of the epoch was
// served, and Reset starts the next epoch.
type Loader struct {
	DS        Dataset
	BatchSize int
	Shuffle   bool

	name  string
	order []int
	pos   int
	rng   *rand.Rand
}

// NewLoader creates a loader over ds. seed drives the per-epoch shuffle.
func NewLoader(name string, ds Dataset, batchSize int, shuffle bool, seed int64) *Loader {
	if batchSize <= 0 {
		batchSize = 32
	}
	l := &Loader{
		DS:        ds,
		BatchSize: batchSize,
		Shuffle:   shuffle,
		name:      name,
		rng:       rand.New(rand.NewSource(seed)),
	}
	l.Reset()
	return l
}

// Name returns the name of the loader.
func (l *Loader) Name() string {
	return l.name
}

// Reset rewinds the loader and, when shuffling, draws a new order.
func (l *Loader) Reset() {
	n := l.DS.Len()
	if len(l.order) != n {
		l.order = make([]int, n)
	}
	for i := range l.order {
		l.order[i] = i
	}
	if l.Shuffle {
		shuffle(l.rng, l.order)
	}
	l.pos = 0
}

// Yield returns the next batch. Inputs hold the pixels or features; labels
// hold the secondary target followed by the primary target and the weights.
// The last batch of an epoch may be smaller than BatchSize.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if l.pos >= len(l.order) {
		return nil, nil, nil, io.EOF
	}
	end := min(l.pos+l.BatchSize, len(l.order))
	indices := l.order[l.pos:end]
	l.pos = end

	items, err := Batch(l.DS, indices)
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := MakeBatchFlat(items)
	if err != nil {
		return nil, nil, nil, err
	}
	in, primary, secondary, err := flat.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return l, []*tensors.Tensor{in}, []*tensors.Tensor{secondary, primary, tensors.FromFlatDataAndDimensions(flat.Weights, flat.BatchSize)}, nil
}
