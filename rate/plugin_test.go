package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadCustomMissingFileReturnsErrLoadPlugin(t *testing.T) {
	_, _, err := LoadCustom("/nonexistent/path/to.so", "Rate")

	var loadErr *ErrLoadPlugin
	assert.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "/nonexistent/path/to.so", loadErr.Path)
}
