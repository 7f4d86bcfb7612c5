package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatShareExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{name: "no expiry never expires", expiresAt: nil, want: false},
		{name: "future expiry still valid", expiresAt: &future, want: false},
		{name: "past expiry expired", expiresAt: &past, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share := &ChatShare{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, share.Expired(now))
		})
	}
}
