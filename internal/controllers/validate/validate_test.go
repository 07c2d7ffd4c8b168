package validate

import (
	"testing"

	"bunkhouse/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string `json:"name"          validate:"required,max=5"`
	Gender string `json:"gender"        validate:"omitempty,oneof=male female other"`
	Date   string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		input    sample
		contains []string
	}{
		{name: "valid", input: sample{Name: "Ana", Gender: "female", Date: "2026-03-12"}},
		{name: "missing name", input: sample{}, contains: []string{"name is required"}},
		{name: "too long", input: sample{Name: "Bartholomew"}, contains: []string{"name fails max=5"}},
		{
			name:     "bad gender and date",
			input:    sample{Name: "Ana", Gender: "x", Date: "12/03/2026"},
			contains: []string{"gender must be one of [male female other]", "date must be a date formatted 2006-01-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if len(tt.contains) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrValidation)
			for _, fragment := range tt.contains {
				assert.Contains(t, err.Error(), fragment)
			}
		})
	}
}

func TestDate(t *testing.T) {
	none, err := Date("")
	require.NoError(t, err)
	assert.Nil(t, none)

	parsed, err := Date("2026-03-12")
	require.NoError(t, err)
	assert.Equal(t, 12, parsed.Day())

	_, err = Date("not-a-date")
	assert.ErrorIs(t, err, services.ErrValidation)
}
