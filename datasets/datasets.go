package datasets

import (
	"errors"

	"go.uber.org/zap"
)

// This file provides the shared types used by the dataset adapters that feed
// the fairness training and evaluation code.
//
// Two adapters are provided:
//
// TabularDataset
//   - Reads a delimited file with a header row (see NewL2Dataset for the voter
//     file schema) and keeps only the declared feature columns.
//   - The label and the sensitive attribute are coded as binary indicators.
//
// UTKFaceFairface
//   - Scans a directory of face images whose filenames encode age, gender and
//     race, optionally merging the FairFace label CSV as an auxiliary,
//     non-annotated pool for semi-supervised training.
//   - Images are only decoded when an example is requested.
//
// Both adapters keep per-(group,label) bookkeeping in a Counts value built by
// DataCount, and both implement the Dataset interface below so they can be
// batched into gomlx tensors through a Loader.

// Dataset is the capability set shared by all adapters.
type Dataset interface {
	Len() int
	Example(i int) (Item, error)
}

// Item is a single example as handed to training code.
//
// Primary is the float target and Secondary the integer target. Which of
// group and label fills each slot depends on the adapter and its variant.
type Item struct {
	Inputs    []float32
	Shape     []int
	Weight    float32
	Primary   float32
	Secondary int64
	Index     int
	Path      string
}

// Split names.
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

var (
	// ErrUnsupportedGroup is returned when a sensitive attribute is requested
	// that the adapter does not know how to derive.
	ErrUnsupportedGroup = errors.New("not allowed group")

	// ErrMissingColumn is returned when a declared column is absent from the
	// input file.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidRatio is returned when a supervision ratio falls outside
	// (0,1) for SSLProcessing, or outside [0,1] for NewUTKFaceFairface.
	ErrInvalidRatio = errors.New("supervision ratio must be in (0, 1)")

	// ErrOutOfRange is returned when a record's group or label falls outside
	// the declared domain.
	ErrOutOfRange = errors.New("group or label out of range")

	// ErrUnknownAttribute is returned for attribute names other than age,
	// gender and race.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
