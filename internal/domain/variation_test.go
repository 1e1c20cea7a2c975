// File: shop-product-service/internal/domain/variation_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A product with Size {Small=100, Large=101} and Color {Red=200, Blue=201}
// and a variation per combination, except Large/Blue which was never created.
func testVariations() []Variation {
	return []Variation{
		{
			ID: 1, Enabled: true, Stock: StockLevel{Level: 5},
			Options: []Option{{ID: 100, AttributeID: 1, Title: "Small"}, {ID: 200, AttributeID: 2, Title: "Red"}},
		},
		{
			ID: 2, Enabled: true, Stock: StockLevel{Level: 5},
			Options: []Option{{ID: 100, AttributeID: 1, Title: "Small"}, {ID: 201, AttributeID: 2, Title: "Blue"}},
		},
		{
			ID: 3, Enabled: true, Stock: StockLevel{Level: 5},
			Options: []Option{{ID: 101, AttributeID: 1, Title: "Large"}, {ID: 200, AttributeID: 2, Title: "Red"}},
		},
	}
}

func TestVariation_SelectionMap(t *testing.T) {
	variations := testVariations()
	assert.Equal(t, Selection{1: 100, 2: 200}, variations[0].SelectionMap())
	assert.Equal(t, Selection{1: 101, 2: 200}, variations[2].SelectionMap())
}

func TestFindExactMatch(t *testing.T) {
	variations := testVariations()

	match := FindExactMatch(variations, Selection{1: 100, 2: 201})
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFindExactMatch_KeyOrderIrrelevant(t *testing.T) {
	variations := testVariations()

	// Two selections with the same pairs inserted in different order must
	// resolve to the same variation.
	a := Selection{}
	a[1] = 101
	a[2] = 200
	b := Selection{}
	b[2] = 200
	b[1] = 101

	matchA := FindExactMatch(variations, a)
	matchB := FindExactMatch(variations, b)
	require.NotNil(t, matchA)
	require.NotNil(t, matchB)
	assert.Equal(t, matchA.ID, matchB.ID)
}

func TestFindExactMatch_NoCombination(t *testing.T) {
	variations := testVariations()
	assert.Nil(t, FindExactMatch(variations, Selection{1: 101, 2: 201}), "Large/Blue was never created")
}

func TestFindExactMatch_PartialSelectionDoesNotMatch(t *testing.T) {
	variations := testVariations()
	// Exact equality, not subset: a selection missing an attribute never
	// matches a full variation.
	assert.Nil(t, FindExactMatch(variations, Selection{1: 100}))
	assert.Nil(t, FindExactMatch(variations, Selection{}))
}

func TestFindExactMatch_UnknownAttribute(t *testing.T) {
	variations := testVariations()
	assert.Nil(t, FindExactMatch(variations, Selection{1: 100, 2: 200, 99: 1}))
}

func TestFindExactMatch_SkipsDisabled(t *testing.T) {
	variations := testVariations()
	variations[1].Enabled = false
	assert.Nil(t, FindExactMatch(variations, Selection{1: 100, 2: 201}))
}

func TestFilterBySelection(t *testing.T) {
	variations := testVariations()

	filtered := FilterBySelection(variations, Selection{1: 100})
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(2), filtered[1].ID)

	filtered = FilterBySelection(variations, Selection{2: 200})
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(3), filtered[1].ID)
}

func TestFilterBySelection_EmptySelectionKeepsAllEnabled(t *testing.T) {
	variations := testVariations()
	variations[2].Enabled = false

	filtered := FilterBySelection(variations, Selection{})
	assert.Len(t, filtered, 2)
}

func TestFilterBySelection_NoContinuation(t *testing.T) {
	variations := testVariations()
	assert.Empty(t, FilterBySelection(variations, Selection{1: 999}))
}

func TestOptionsForNextAttribute(t *testing.T) {
	variations := testVariations()

	// After choosing Small, both colors remain.
	filtered := FilterBySelection(variations, Selection{1: 100})
	options := OptionsForNextAttribute(filtered, 2)
	require.Len(t, options, 2)
	assert.Equal(t, "Red", options[0].Title)
	assert.Equal(t, "Blue", options[1].Title)

	// After choosing Large, only Red remains.
	filtered = FilterBySelection(variations, Selection{1: 101})
	options = OptionsForNextAttribute(filtered, 2)
	require.Len(t, options, 1)
	assert.Equal(t, int64(200), options[0].ID)
}

func TestOptionsForNextAttribute_Distinct(t *testing.T) {
	variations := testVariations()
	// Unfiltered, the size attribute yields each option once even though
	// Small appears on two variations.
	options := OptionsForNextAttribute(variations, 1)
	require.Len(t, options, 2)
	assert.Equal(t, int64(100), options[0].ID)
	assert.Equal(t, int64(101), options[1].ID)
}

func TestOptionsForNextAttribute_Empty(t *testing.T) {
	assert.Empty(t, OptionsForNextAttribute(nil, 1))
	assert.Empty(t, OptionsForNextAttribute(testVariations(), 99), "unknown attribute has no continuation")
}

func TestVariation_ValidFor(t *testing.T) {
	attributes := []Attribute{{ID: 1, Title: "Size"}, {ID: 2, Title: "Color"}}
	variations := testVariations()

	assert.True(t, variations[0].ValidFor(attributes))

	partial := Variation{Options: []Option{{ID: 100, AttributeID: 1}}}
	assert.False(t, partial.ValidFor(attributes), "a variation must carry one option per attribute")

	extra := Variation{
		PriceDelta: decimal.Zero,
		Options: []Option{
			{ID: 100, AttributeID: 1},
			{ID: 200, AttributeID: 2},
			{ID: 300, AttributeID: 3},
		},
	}
	assert.False(t, extra.ValidFor(attributes))
}
