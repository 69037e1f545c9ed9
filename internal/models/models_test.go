package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationTokenRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := RegistrationToken{Token: "t", EventID: "evt-1", ExpiresAt: now.Add(time.Hour)}

	cases := []struct {
		name    string
		mutate  func(*RegistrationToken)
		eventID string
		at      time.Time
		want    bool
	}{
		{"fresh", func(*RegistrationToken) {}, "evt-1", now, true},
		{"exactly at expiry", func(*RegistrationToken) {}, "evt-1", now.Add(time.Hour), true},
		{"after expiry", func(*RegistrationToken) {}, "evt-1", now.Add(time.Hour + time.Nanosecond), false},
		{"other event", func(*RegistrationToken) {}, "evt-2", now, false},
		{"used", func(tok *RegistrationToken) { tok.Used = true }, "evt-1", now, false},
		{"expired and unused", func(tok *RegistrationToken) { tok.ExpiresAt = now.Add(-time.Second) }, "evt-1", now, false},
		{"expired and used", func(tok *RegistrationToken) {
			tok.ExpiresAt = now.Add(-time.Second)
			tok.Used = true
		}, "evt-1", now, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := base
			tc.mutate(&tok)
			assert.Equal(t, tc.want, tok.Redeemable(tc.eventID, tc.at))
		})
	}
}

func TestEventAcceptsRegistrations(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&Event{IsActive: true}).AcceptsRegistrations(now))
	assert.True(t, (&Event{IsActive: true, EndDate: &future}).AcceptsRegistrations(now))
	assert.False(t, (&Event{IsActive: true, EndDate: &past}).AcceptsRegistrations(now))
	assert.False(t, (&Event{IsActive: false}).AcceptsRegistrations(now))
}
