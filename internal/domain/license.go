package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// License grants access to a delivered digital artifact.
type License struct {
	Key       string
	UserID    string
	SKU       string
	OrderID   string
	Revoked   bool
	CreatedAt time.Time
}

// NewLicenseKey derives a 24-character key from the buyer, SKU and issue
// time. Matches keys issued by the previous system.
func NewLicenseKey(platformUserID, sku string, issuedAt time.Time) string {
	raw := fmt.Sprintf("%s:%s:%d", platformUserID, sku, issuedAt.UnixMilli())
	sum := sha256.Sum256([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:24])
}
