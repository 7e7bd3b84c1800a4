package onboarding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())
}

func TestLoadCatalog_TrimsIDs(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(`
categories:
  - id: " driving"
    label: Driving
    subcategories: [" Cab Driver ", "Truck Driver"]
    requires_vehicle: true
vehicles: [" car "]
`))
	require.NoError(t, err)

	cat, ok := c.Category("driving")
	require.True(t, ok)
	assert.True(t, cat.HasSubcategory("Cab Driver"))
	assert.True(t, c.RequiresVehicle("driving"))
	assert.True(t, c.AcceptsVehicle("car"))
}

func TestLoadCatalog_TrimmedDuplicateRejected(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader(`
categories:
  - id: driving
    subcategories: [Cab Driver]
  - id: "driving "
    subcategories: [Truck Driver]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog *Catalog
		wantErr string
	}{
		{name: "empty", catalog: &Catalog{}, wantErr: "at least one category"},
		{
			name:    "blank id",
			catalog: &Catalog{Categories: []Category{{ID: " ", Subcategories: []string{"Cook"}}}},
			wantErr: "cannot be empty",
		},
		{
			name:    "untrimmed id",
			catalog: &Catalog{Categories: []Category{{ID: " driving", Subcategories: []string{"Cab Driver"}}}},
			wantErr: "surrounding whitespace",
		},
		{
			name:    "no subcategories",
			catalog: &Catalog{Categories: []Category{{ID: "driving"}}},
			wantErr: "no subcategories",
		},
		{
			name:    "blank subcategory",
			catalog: &Catalog{Categories: []Category{{ID: "driving", Subcategories: []string{""}}}},
			wantErr: "blank or untrimmed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
