package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret(t *testing.T) {
	assert.Equal(t, "?", Secret("k", "").Value.String())
	assert.Equal(t, "***", Secret("k", "abc").Value.String())
	assert.Equal(t, "abcde***", Secret("k", "abcdefghij").Value.String())
}

func TestErr(t *testing.T) {
	a := Err(errors.New("boom"))
	assert.Equal(t, "error", a.Key)
	assert.Equal(t, "boom", a.Value.String())
	assert.Equal(t, "", Err(nil).Value.String())
}
