package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), PredictionEvent{TransactionType: "TRANSFER"}))
	p.Close()
}
