package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingMinutes(t *testing.T) {
	tests := []struct {
		name string
		user User
		want int
	}{
		{
			name: "sentinel means unlimited",
			user: User{Subscription: Subscription{Plan: "pro", MinutesLeft: -1}},
			want: UnlimitedMinutes,
		},
		{
			name: "pro+ plan is unlimited regardless of counter",
			user: User{Subscription: Subscription{Plan: "pro+", MinutesLeft: 0}},
			want: UnlimitedMinutes,
		},
		{
			name: "free plan derives from allowance",
			user: User{Subscription: Subscription{Plan: "free"}, Usage: Usage{TotalMinutesUsed: 2}},
			want: 3,
		},
		{
			name: "free plan never goes negative",
			user: User{Subscription: Subscription{Plan: "free"}, Usage: Usage{TotalMinutesUsed: 9}},
			want: 0,
		},
		{
			name: "metered plan uses counter",
			user: User{Subscription: Subscription{Plan: "pro", MinutesLeft: 42}},
			want: 42,
		},
		{
			name: "metered plan clamps negative counter",
			user: User{Subscription: Subscription{Plan: "pro", MinutesLeft: -5}},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.RemainingMinutes())
		})
	}

	// -5 is not the sentinel, so the plan is still metered.
	u := User{Subscription: Subscription{Plan: "pro", MinutesLeft: -5}}
	assert.False(t, u.Unlimited())
}

func TestClientMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"user":{"_id":"u1","firstName":"Ada","subscription":{"plan":"pro","minutesLeft":30},"usage":{"totalMinutesUsed":12}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123")
	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, 30, user.RemainingMinutes())
	assert.False(t, user.Unlimited())
}

func TestClientMeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad")
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
