package storepg

import (
	"fmt"

	"github.com/mr-tron/base58"
)

func decodeBase58To32(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 key %q: %w", s, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("key %q decodes to %d bytes, want 32", s, len(b))
	}
	return b, nil
}
