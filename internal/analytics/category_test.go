package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testCatalog = []MenuCatalogEntry{
	{Name: "Osh", CategoryID: "c1"},
	{Name: "Lag'mon", CategoryID: "c1"},
	{Name: "Choy", CategoryID: "c3"},
	{Name: "Ko'k choy", CategoryID: "c4"},
	{Name: "Борщ", CategoryID: "c5"},
	{Name: "", CategoryID: "c9"},
	{Name: "Non", CategoryID: ""},
}

var testCategories = []Category{
	{ID: "c1", Name: "Milliy taomlar"},
	{ID: "c3", Name: "Ichimliklar"},
	{ID: "c4", Name: "Choylar"},
	{ID: "c5", Name: "Sho'rvalar"},
}

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		item string
		want string
	}{
		{"Osh", "c1"},
		{"osh", "c1"},
		{"Osh qozoni", "c1"},
		{"LAG'MON", "c1"},
		{"борщ", "c5"},
		// case-insensitive beats an earlier substring hit on "Choy"
		{"ko'k CHOY", "c4"},
		{"Salad", OtherCategory},
		{"Non", OtherCategory},
		{"", OtherCategory},
	}
	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCategory(tt.item, testCatalog))
		})
	}
}

func TestResolveCategory_EmptyCatalog(t *testing.T) {
	assert.Equal(t, OtherCategory, ResolveCategory("Osh", nil))
}

func TestCategoryResolver_Name(t *testing.T) {
	r := NewCategoryResolver(testCatalog, testCategories)

	assert.Equal(t, "Milliy taomlar", r.Name(OrderItem{Name: "osh"}))
	assert.Equal(t, "Ichimliklar", r.Name(OrderItem{Name: "Choy"}))
	assert.Equal(t, OtherCategory, r.Name(OrderItem{Name: "Salad"}))

	// a known category on the item itself is used as is
	assert.Equal(t, "Choylar", r.Name(OrderItem{Name: "Osh", CategoryID: "c4"}))
	// an unknown one falls back to name matching
	assert.Equal(t, "Milliy taomlar", r.Name(OrderItem{Name: "Osh", CategoryID: "gone"}))
}

func TestCategoryResolver_UnnamedCategory(t *testing.T) {
	r := NewCategoryResolver([]MenuCatalogEntry{{Name: "Somsa", CategoryID: "c7"}}, nil)
	assert.Equal(t, "c7", r.Name(OrderItem{Name: "Somsa"}))
}
