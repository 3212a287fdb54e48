package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateOrderID returns a time-ordered merchant reference such as
// "ORD-0192F3A1B2C37D4E8F9A0B1C2D3E4F50".
func GenerateOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(GenerateUUIDV7(), "-", ""))
}
