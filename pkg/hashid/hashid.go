// Package hashid builds content-derived ids for market rows. The same
// semantic fields always hash to the same id, so logically-equivalent
// rows can be matched across fetches without a sequence number.
package hashid

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// New hashes the given fields into a deterministic hex id.
func New(fields ...interface{}) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%v", f)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}

// Listing derives the id of a live listing. Retainer name is included
// so the same offer re-posted by another retainer counts as new.
func Listing(itemID int, crafted, hq bool, price, stack, town int, retainer string) string {
	return New(itemID, crafted, hq, price, stack, town, retainer)
}

// History derives the id of a purchase record. Buyer name is excluded
// since character renames would change it.
func History(itemID, stack int, hq bool, price int, purchased int64) string {
	return New(itemID, stack, hq, price, purchased)
}
