package onboarding

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is a broad line of work and the subcategories a jobseeker can pick in it.
type Category struct {
	ID              string   `yaml:"id"               json:"id"`
	Label           string   `yaml:"label"            json:"label"`
	Subcategories   []string `yaml:"subcategories"    json:"subcategories"`
	RequiresVehicle bool     `yaml:"requires_vehicle" json:"requires_vehicle"`
}

// Catalog is the fixed set of categories offered during onboarding.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	// Vehicles lists accepted vehicle values. Empty means any non-empty value.
	Vehicles []string `yaml:"vehicles" json:"vehicles"`
}

// DefaultCatalog returns the built-in category list.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				ID:            "construction",
				Label:         "Construction",
				Subcategories: []string{"Mason", "Carpenter", "Plumber", "Electrician", "Painter", "Helper"},
			},
			{
				ID:              "driving",
				Label:           "Driving",
				Subcategories:   []string{"Cab Driver", "Truck Driver", "Auto Driver", "Personal Driver"},
				RequiresVehicle: true,
			},
			{
				ID:              "delivery",
				Label:           "Delivery",
				Subcategories:   []string{"Food Delivery", "Parcel Delivery", "Grocery Delivery"},
				RequiresVehicle: true,
			},
			{
				ID:            "household",
				Label:         "Household",
				Subcategories: []string{"Cook", "Cleaner", "Babysitter", "Elderly Care"},
			},
			{
				ID:            "hospitality",
				Label:         "Hospitality",
				Subcategories: []string{"Waiter", "Kitchen Helper", "Housekeeping"},
			},
		},
		Vehicles: []string{"bicycle", "bike", "auto", "car", "tempo", "truck"},
	}
}

// LoadCatalog parses a YAML catalog and validates it.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// normalize trims hand-edited values so lookups match what users submit.
func (c *Catalog) normalize() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.ID = strings.TrimSpace(cat.ID)
		cat.Label = strings.TrimSpace(cat.Label)
		for j, sub := range cat.Subcategories {
			cat.Subcategories[j] = strings.TrimSpace(sub)
		}
	}
	for i, v := range c.Vehicles {
		c.Vehicles[i] = strings.TrimSpace(v)
	}
}

// Validate checks that category IDs are trimmed and unique and every category
// has named subcategories.
func (c *Catalog) Validate() error {
	if c == nil || len(c.Categories) == 0 {
		return errors.New("catalog must define at least one category")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		id := strings.TrimSpace(cat.ID)
		if id == "" {
			return errors.New("catalog category id cannot be empty")
		}
		if id != cat.ID {
			return fmt.Errorf("catalog category id %q has surrounding whitespace", cat.ID)
		}
		if slices.ContainsFunc(cat.Subcategories, func(sub string) bool { return strings.TrimSpace(sub) != sub || sub == "" }) {
			return fmt.Errorf("catalog category %q has a blank or untrimmed subcategory", id)
		}
		if seen[id] {
			return fmt.Errorf("catalog category %q is defined twice", id)
		}
		seen[id] = true
		if len(cat.Subcategories) == 0 {
			return fmt.Errorf("catalog category %q has no subcategories", id)
		}
	}
	return nil
}

// Category looks up a category by ID.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// RequiresVehicle reports whether the category is in the vehicle-required set.
func (c *Catalog) RequiresVehicle(categoryID string) bool {
	cat, ok := c.Category(categoryID)
	return ok && cat.RequiresVehicle
}

// AcceptsVehicle reports whether v is a permitted vehicle value.
func (c *Catalog) AcceptsVehicle(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if len(c.Vehicles) == 0 {
		return true
	}
	return slices.Contains(c.Vehicles, v)
}

// HasSubcategory reports whether sub belongs to the category.
func (cat Category) HasSubcategory(sub string) bool {
	return slices.Contains(cat.Subcategories, sub)
}
