package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParityPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parity.png")
	err := ParityPlot(path, "test", []float64{10, 20, 30}, []float64{12, 19, 33})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestParityPlot_LengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parity.png")
	assert.Error(t, ParityPlot(path, "test", []float64{1, 2}, []float64{1}))
	assert.Error(t, ParityPlot(path, "test", nil, nil))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0.997", FormatScore(0.99712))
}
