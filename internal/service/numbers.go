package service

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// numberAttempts bounds the retry loop when a generated order or PO
// number collides with an existing row. The suffixes are random, so a
// collision is only probabilistically excluded; the unique index on
// the number column is what actually guarantees correctness.
const numberAttempts = 5

// Generation is indirected through package vars so collision handling
// can be exercised deterministically.
var (
	newOrderNumber = generateOrderNumber
	newPONumber    = generatePONumber
)

// numericSuffix returns n random decimal digits derived from a UUID.
func numericSuffix(n int) string {
	u := uuid.New()
	digits := fmt.Sprintf("%019d", binary.BigEndian.Uint64(u[:8]))
	return digits[len(digits)-n:]
}

// generateOrderNumber builds a date-prefixed order number, e.g.
// 25090112345678.
func generateOrderNumber(now time.Time) string {
	return now.Format("060102") + numericSuffix(8)
}

// generatePONumber builds a purchase order number, e.g. PO2509123456.
func generatePONumber(now time.Time) string {
	return "PO" + now.Format("0601") + numericSuffix(6)
}
