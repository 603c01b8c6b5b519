package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
	assert.True(t, role.IsValid())

	_, err = ParseRole("owner")
	assert.Error(t, err)
	assert.False(t, Role("owner").IsValid())
}

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "paid", "cancelled"} {
		status, err := ParseOrderStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, status.String())
	}

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderMetadataValueAndScan(t *testing.T) {
	meta := DefaultOrderMetadata()
	meta["gift"] = true

	v, err := meta.Value()
	require.NoError(t, err)

	var decoded OrderMetadata
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, "", decoded["shipping_address"])
	assert.Equal(t, true, decoded["gift"])

	require.NoError(t, decoded.Scan(`{"note":"leave at door"}`))
	assert.Equal(t, "leave at door", decoded["note"])

	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)

	assert.Error(t, decoded.Scan(42))
}

func TestNilMetadataValue(t *testing.T) {
	var meta OrderMetadata
	v, err := meta.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	require.NotNil(t, StringPtr("x"))
	assert.Equal(t, "x", *StringPtr("x"))
}
