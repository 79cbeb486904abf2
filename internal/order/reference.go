package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReference builds the human-readable unique order reference,
// e.g. ORD-20260115-093012-412-8317. The reference doubles as the
// gateway charge reference, so collisions must be vanishingly rare.
func GenerateReference() string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("ORD-%s-%03d-%04d", datePart, millis, n.Int64())
}
