package models

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a new unique ID with a readable prefix, such as
// evt-6f1c2a8e-3b4d-4e5f-9a0b-1c2d3e4f5a6b
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// GenerateNumber generates a human-facing document number such as ORD-20240115-3F2A9C1B04DE.
// The suffix is the first 48 random bits of a v4 UUID.
func GenerateNumber(prefix string, at time.Time) string {
	id := uuid.New()

	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), strings.ToUpper(hex.EncodeToString(id[:6])))
}

// GetCurrentTime returns the current time in UTC
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}
