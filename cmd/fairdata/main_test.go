package main

import (
	"bytes"
	"testing"

	"github.com/Noofbiz/fairdata/datasets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	log, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}

func TestPrintCounts(t *testing.T) {
	records := make([]datasets.ImageRecord, 0, 1203)
	for range 1200 {
		records = append(records, datasets.ImageRecord{Group: 0, Label: 1})
	}
	records = append(records, datasets.ImageRecord{Group: 1, Label: 0},
		datasets.ImageRecord{Group: 1, Label: 0}, datasets.ImageRecord{Group: 1, Label: 1})
	c, err := datasets.DataCount(records, 2, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	printCounts(&buf, "faces", c)
	out := buf.String()
	assert.Contains(t, out, "faces: 1,203 records, 2 groups x 2 classes")
	assert.Contains(t, out, "group 0: 0\t1,200")
	assert.Contains(t, out, "group 1: 2\t1")
}
