package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopConfig_Defaults(t *testing.T) {
	config := newDefaultLoopConfig()

	assert.Equal(t, DefaultPollTimeout, config.PollTimeout)
	assert.False(t, config.AutoClose)
	assert.Nil(t, config.OnError)
}

func TestWithPollTimeout_IgnoresNonPositive(t *testing.T) {
	config := newDefaultLoopConfig()

	WithPollTimeout(-time.Second)(config)
	assert.Equal(t, DefaultPollTimeout, config.PollTimeout)

	WithPollTimeout(250 * time.Millisecond)(config)
	assert.Equal(t, 250*time.Millisecond, config.PollTimeout)
}
