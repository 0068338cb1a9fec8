package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Gaming Laptops":       "gaming-laptops",
		"  Audio & Hi-Fi  ":    "audio-hi-fi",
		"Phones":               "phones",
		"Écrans 4K":            "crans-4k",
		"---":                  "",
		"Smart Home (Gadgets)": "smart-home-gadgets",
	}

	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}

func TestSubtotal(t *testing.T) {
	lines := []models.CartLine{
		{ProductID: 1, Price: 10000, Quantity: 2},
		{ProductID: 2, Price: 5000, Quantity: 1},
	}

	assert.Equal(t, int64(25000), Subtotal(lines))
	assert.Equal(t, int64(0), Subtotal(nil))
}
