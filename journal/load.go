package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// Replayer re-executes a journaled transaction with nonce/hash checks
// relaxed enough to re-accept the exact same hash (spec.md §4.6 "Load").
type Replayer interface {
	Replay(tx *core.Transaction) error
}

// Load parses the on-disk array at path and replays, in order, every event
// that carries a transaction through r. Time, block and mint events are
// decoded but not re-applied. A nonexistent path surfaces FileNotFound.
func Load(path string, r Replayer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.ErrFileNotFound
		}
		return fmt.Errorf("read journal: %w", err)
	}

	var rawEvents []json.RawMessage
	if err := json.Unmarshal(raw, &rawEvents); err != nil {
		return fmt.Errorf("%w: %v", core.ErrFormatError, err)
	}

	for _, rawEvent := range rawEvents {
		event, err := Decode(rawEvent)
		if err != nil {
			return err
		}
		if event.Transaction != nil {
			if err := r.Replay(event.Transaction); err != nil {
				return err
			}
		}
	}
	return nil
}
