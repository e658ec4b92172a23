package messaging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/messaging"
)

type noopSubmitter struct{}

func (noopSubmitter) SubmitL1Handler(tx *core.L1HandlerTransaction) (*core.Receipt, error) {
	return nil, nil
}

func TestFlushPropagatesUnconfiguredBridgeError(t *testing.T) {
	b := messaging.New()
	_, err := b.Flush(context.Background(), noopSubmitter{}, false)
	assert.ErrorIs(t, err, core.ErrMessagingNotConfigured)

	_, err = b.Flush(context.Background(), noopSubmitter{}, true)
	assert.ErrorIs(t, err, core.ErrMessagingNotConfigured, "dry run still needs a configured bridge to fetch from")
}
