package claims

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewClaimID returns an identifier of the form CLM-YYYYMMDD-<ULID>. ULIDs
// from ulid.Make are monotonic within the process, so ids never repeat.
func NewClaimID(now time.Time) string {
	return "CLM-" + now.UTC().Format("20060102") + "-" + ulid.Make().String()
}
