package payment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	OrderPrefixGateway = "bk"
	OrderPrefixCash    = "cash-bk"
)

// NewOrderID returns "<prefix>-<bookingID>-<unix millis>".
func NewOrderID(prefix string, bookingID uint, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d", prefix, bookingID, at.UnixMilli())
}

// ParseOrderID extracts the booking id from an order id built by NewOrderID.
// The id is the segment right before the trailing timestamp, so both prefixes
// parse the same way. Malformed input yields 0.
func ParseOrderID(orderID string) uint {
	parts := strings.Split(strings.TrimSpace(orderID), "-")
	if len(parts) < 3 {
		return 0
	}
	if _, err := strconv.ParseUint(parts[len(parts)-1], 10, 64); err != nil {
		return 0
	}
	id, err := strconv.ParseUint(parts[len(parts)-2], 10, 64)
	if err != nil || id == 0 || uint64(uint(id)) != id {
		return 0
	}
	return uint(id)
}
