package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDLQQueueName(t *testing.T) {
	assert.Equal(t, "pm.stage.submitted.notification.q.dlq", DLQQueueName("pm.stage.submitted.notification.q"))
}

func TestDeadLetterArgs(t *testing.T) {
	args := DeadLetterArgs()
	assert.Equal(t, DLQExchangeName, args["x-dead-letter-exchange"])
	assert.NoError(t, args.Validate())
}
