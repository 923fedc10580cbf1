package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/readify/storefront/internal/domain"
)

// ErrSnapshotCorrupt marks a persisted cart that cannot be decoded or breaks
// a ledger invariant. It is logged and the ledger starts empty.
var ErrSnapshotCorrupt = errors.New("cart snapshot corrupt")

// encodeSnapshot renders lines as a JSON array of flattened cart lines.
func encodeSnapshot(lines []domain.CartLine) (string, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart: %w", err)
	}
	return string(b), nil
}

func decodeSnapshot(raw string) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}

	seen := make(map[int64]struct{}, len(lines))
	for i, line := range lines {
		if _, dup := seen[line.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate book %d at line %d", ErrSnapshotCorrupt, line.ID, i)
		}
		seen[line.ID] = struct{}{}

		if line.Quantity < 1 || line.Quantity > MaxQuantity {
			return nil, fmt.Errorf("%w: book %d has quantity %d", ErrSnapshotCorrupt, line.ID, line.Quantity)
		}
		if line.Price <= 0 {
			return nil, fmt.Errorf("%w: book %d has price %v", ErrSnapshotCorrupt, line.ID, line.Price)
		}
	}
	return lines, nil
}
