package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(&sample{Name: "x", Count: 1}))

	err := Struct(sample{})
	if assert.Error(t, err) {
		assert.Equal(t, "name required; count gte", err.Error())
	}

	assert.EqualError(t, Struct(nil), "is nil")
	assert.EqualError(t, Struct(42), "not a struct")
}
