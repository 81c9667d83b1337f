package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

func TestSubscriptionStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.SubscriptionStatus
		to      domain.SubscriptionStatus
		allowed bool
	}{
		{domain.SubTrialing, domain.SubActive, true},
		{domain.SubTrialing, domain.SubExpired, true},
		{domain.SubTrialing, domain.SubCancelled, true},
		{domain.SubTrialing, domain.SubPastDue, false},
		{domain.SubActive, domain.SubPastDue, true},
		{domain.SubActive, domain.SubCancelled, true},
		{domain.SubPastDue, domain.SubActive, true},
		{domain.SubPastDue, domain.SubSuspended, true},
		{domain.SubSuspended, domain.SubActive, true},
		{domain.SubExpired, domain.SubCancelled, false},
		{domain.SubCancelled, domain.SubActive, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"transition %s -> %s", tc.from, tc.to)
	}
}

func TestSubscriptionStatusIsTerminal(t *testing.T) {
	assert.True(t, domain.SubCancelled.IsTerminal())
	assert.True(t, domain.SubExpired.IsTerminal())
	assert.False(t, domain.SubTrialing.IsTerminal())
	assert.False(t, domain.SubActive.IsTerminal())
	assert.False(t, domain.SubPastDue.IsTerminal())
	assert.False(t, domain.SubSuspended.IsTerminal())
}
