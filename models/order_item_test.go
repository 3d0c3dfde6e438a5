package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func item(closed bool, billID *uint) OrderItem {
	return OrderItem{UnitPrice: 11400, Quantity: 2, IsClosed: closed, BillRequestID: billID}
}

func TestOrderItemPayable(t *testing.T) {
	reserved := uint(3)

	assert.True(t, item(false, nil).Payable())
	assert.False(t, item(false, &reserved).Payable())
	assert.False(t, item(true, &reserved).Payable())
	assert.Equal(t, int64(22800), item(false, nil).LineTotal())
}
