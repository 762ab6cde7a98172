package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bx-treasury/internal/event"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "house.bet.settled", Subject(event.EventBetSettled))
	assert.Equal(t, "house.equity.nav_updated", Subject(event.EventNAVUpdated))
}
