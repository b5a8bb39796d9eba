package batch

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Key addresses one cell of a batch: which source image, which variant
// of it, and the batch round it belongs to. The stamp keeps keys from
// older rounds distinct so their late settlements cannot collide.
type Key struct {
	SourceIndex  int   `json:"source_index"`
	VariantIndex int   `json:"variant_index"`
	BatchStamp   int64 `json:"batch_stamp"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d@%d", k.SourceIndex, k.VariantIndex, k.BatchStamp)
}

func ParseKey(s string) (Key, error) {
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}
	slash := strings.IndexByte(s[:at], '/')
	if slash < 0 {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}
	source, err := strconv.Atoi(s[:slash])
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	variant, err := strconv.Atoi(s[slash+1 : at])
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	stamp, err := strconv.ParseInt(s[at+1:], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return Key{SourceIndex: source, VariantIndex: variant, BatchStamp: stamp}, nil
}

var (
	stampMu   sync.Mutex
	lastStamp int64
)

// NewBatchStamp returns a unix-millisecond stamp, bumped when two
// rounds start within the same millisecond.
func NewBatchStamp() int64 {
	stampMu.Lock()
	defer stampMu.Unlock()
	stamp := time.Now().UnixMilli()
	if stamp <= lastStamp {
		stamp = lastStamp + 1
	}
	lastStamp = stamp
	return stamp
}
