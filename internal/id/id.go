// Package id generates run identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps runs started in the same millisecond ordered.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRun returns a run ID stamped with t. Run IDs sort by start time, so
// `journal runs` lists them in the order they were made.
func NewRun(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Started returns the timestamp encoded in a run ID.
func Started(runID string) (time.Time, error) {
	u, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
