package catalog

import "strings"

// Price buckets used for storefront filtering.
const (
	PriceBucketLow  = "low"
	PriceBucketMid  = "mid"
	PriceBucketHigh = "high"
)

// Categories derived from photo descriptions. DefaultCategory covers
// anything the keyword scan cannot place.
const (
	CategoryFashion     = "fashion"
	CategoryElectronics = "electronics"
	CategoryToys        = "toys"
	CategoryHome        = "home"
	DefaultCategory     = "shopping"
)

// Product is the storefront view of a synthesized catalog item. Products
// are ephemeral: they exist only inside a feed session and in the
// snapshots carts, wishlists, and orders take of them.
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	ImageURL      string `json:"image_url"`
	LargeImageURL string `json:"large_image_url"`
	Category      string `json:"category"`
	PriceBucket   string `json:"price_bucket"`
}

var categoryKeywords = map[string][]string{
	CategoryFashion:     {"fashion", "cloth", "dress", "shirt", "shoe", "style", "wear", "jacket", "jeans"},
	CategoryElectronics: {"electronic", "phone", "laptop", "computer", "camera", "headphone", "gadget", "tech"},
	CategoryToys:        {"toy", "lego", "doll", "game", "play", "puzzle"},
	CategoryHome:        {"home", "furniture", "chair", "table", "sofa", "kitchen", "lamp", "decor", "interior"},
}

// DetectCategory scans the photo description for category keywords.
func DetectCategory(description string) string {
	lowered := strings.ToLower(description)
	if lowered == "" {
		return DefaultCategory
	}
	for _, category := range []string{CategoryFashion, CategoryElectronics, CategoryToys, CategoryHome} {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lowered, keyword) {
				return category
			}
		}
	}
	return DefaultCategory
}

// PriceBucketFor maps a price in cents into its display bucket.
func PriceBucketFor(priceCents int64) string {
	switch {
	case priceCents <= 50000:
		return PriceBucketLow
	case priceCents <= 100000:
		return PriceBucketMid
	default:
		return PriceBucketHigh
	}
}
