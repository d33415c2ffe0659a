package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNumber builds a human-legible order number such as
// VLR-1756600000000-A1B2C3D4. The random suffix keeps it practically
// unique; the orders table carries a unique index on it as the
// authoritative guard.
func GenerateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("VLR-%d-%s", time.Now().UnixMilli(), suffix)
}

// GenerateGuestToken issues an opaque token identifying a guest session
func GenerateGuestToken() string {
	return uuid.NewString()
}
