// Package classify decides whether a promotions document describes an item
// that is currently free.
package classify

import "github.com/tidwall/gjson"

// offerPaths are checked in order. Epic reports "promotionalOffers"; adapters
// that synthesize promotions use "offers".
var offerPaths = []string{"promotionalOffers", "offers"}

// IsFree reports whether promotions holds at least one promotional offer.
// Missing, empty or malformed data is treated as not free.
func IsFree(promotions []byte) bool {
	if len(promotions) == 0 || !gjson.ValidBytes(promotions) {
		return false
	}
	doc := gjson.ParseBytes(promotions)
	if !doc.IsObject() {
		return false
	}
	for _, path := range offerPaths {
		if hasOffer(doc.Get(path)) {
			return true
		}
	}
	return false
}

func hasOffer(offers gjson.Result) bool {
	if !offers.IsArray() {
		return false
	}
	found := false
	offers.ForEach(func(_, entry gjson.Result) bool {
		if entry.Type != gjson.Null {
			found = true
			return false
		}
		return true
	})
	return found
}
