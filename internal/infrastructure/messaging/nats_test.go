package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bistro/internal/domain/events"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "bistro.order.created", Subject(DefaultSubjectPrefix, events.OrderCreated))
	assert.Equal(t, "pos.stock.low", Subject("pos", "Stock.Low"))
}
