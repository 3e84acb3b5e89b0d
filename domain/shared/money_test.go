package shared

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"0.125", "0.13"},
		{"10", "10.00"},
	}
	for _, tt := range tests {
		m, err := NewMoney(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m.String(), "input %s", tt.in)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("19.99")
	b := MustMoney("0.01")

	assert.Equal(t, "20.00", a.Add(b).String())
	assert.Equal(t, "19.98", a.Sub(b).String())
	assert.Equal(t, "59.97", a.MulInt(3).String())
	assert.Equal(t, "2.00", a.MulRate(decimal.RequireFromString("0.10")).String())
	assert.Equal(t, "5.00", MustMoney("20").Percent(decimal.NewFromInt(25)).String())
	assert.True(t, a.GreaterThan(b))
	assert.True(t, b.LessThan(a))
	assert.True(t, Zero.IsZero())
}

func TestNewMoneyRejectsGarbage(t *testing.T) {
	_, err := NewMoney("twelve")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDomainErrorCarriesContext(t *testing.T) {
	err := NewInvalidTransitionError("order", "o-1", "DELIVERED", "PENDING")

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "o-1", de.EntityID)
	assert.Equal(t, "DELIVERED", de.Current)
	assert.Equal(t, "PENDING", de.Attempted)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.NotEmpty(t, de.Stack())
}

func TestWithReasonMatchesBothSentinels(t *testing.T) {
	reason := errors.New("specific")
	err := WithReason(NewInvalidStateError("order", "o-1", "PREPARING", "cancel"), reason)

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, errors.Is(err, reason))
}

func TestGatewayErrorWrapsCause(t *testing.T) {
	cause := errors.New("card network down")
	err := NewGatewayError("payment", "p-1", cause)

	assert.True(t, errors.Is(err, ErrGateway))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "card network down")
}

func TestActorLabel(t *testing.T) {
	assert.Equal(t, "Ann", Actor{ID: "u1", Name: "Ann"}.Label())
	assert.Equal(t, "u1", Actor{ID: "u1"}.Label())
	assert.Equal(t, "SYSTEM", Actor{}.Label())
	assert.True(t, SystemActor.IsStaff())
}
