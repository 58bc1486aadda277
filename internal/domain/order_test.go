package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCanTransition(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusAccepted, OrderStatusCancelled},
		OrderStatusAccepted:   {OrderStatusInProgress, OrderStatusCancelled},
		OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusCompleted:  nil,
		OrderStatusCancelled:  nil,
	}

	all := []OrderStatus{
		OrderStatusPending, OrderStatusAccepted, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled,
	}

	for from, targets := range allowed {
		ok := make(map[OrderStatus]bool, len(targets))
		for _, s := range targets {
			ok[s] = true
		}
		order := &Order{Status: from}
		for _, next := range all {
			assert.Equal(t, ok[next], order.CanTransition(next),
				"%s -> %s", from, next)
		}
	}
}
