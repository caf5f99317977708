package tradein

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

var referencePattern = regexp.MustCompile(`^TI-\d{8}-[0-9a-f]{6}$`)

// NewReferenceNumber returns TI-<YYYYMMDD>-<first 6 hex chars of a random UUID>.
func NewReferenceNumber(at time.Time) string {
	return "TI-" + at.Format("20060102") + "-" + uuid.NewString()[:6]
}

func IsReferenceNumber(s string) bool {
	return referencePattern.MatchString(s)
}
