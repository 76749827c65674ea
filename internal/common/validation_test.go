package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("from", "2024-01-31", Required, DateLayout("2006-01-02")).
		Field("to", "31/01/2024", DateLayout("2006-01-02")).
		Field("id", "not-a-uuid", UUID).
		Field("workers", 0, Positive)

	require.True(t, v.HasErrors())
	errs := v.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, "to", errs[0].Field)
	assert.Equal(t, "id", errs[1].Field)
	assert.Equal(t, "workers", errs[2].Field)

	err := v.Error()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator().Field("name", "x", Required)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
	assert.Empty(t, v.ErrorMessage())
}

func TestRequired(t *testing.T) {
	empty := "  "
	assert.NotNil(t, Required("f", nil))
	assert.NotNil(t, Required("f", ""))
	assert.NotNil(t, Required("f", &empty))
	assert.Nil(t, Required("f", "value"))
}
