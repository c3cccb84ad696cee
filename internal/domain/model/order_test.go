package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusIsTerminal(t *testing.T) {
	require.False(t, OrderStatusPending.IsTerminal())
	require.False(t, OrderStatusProcessing.IsTerminal())
	require.True(t, OrderStatusPaid.IsTerminal())
	require.True(t, OrderStatusFailed.IsTerminal())
}
