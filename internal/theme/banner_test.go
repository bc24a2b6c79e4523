package theme

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "REPOMATCH")
	assert.Equal(t, Banner(), buf.String())
}
