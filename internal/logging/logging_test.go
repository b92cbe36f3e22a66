package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/logging"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(&buf, "warning")
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("a cannot be removed")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "a cannot be removed")
	assert.NotContains(t, buf.String(), "time=")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, logging.OrDiscard(nil))
}
