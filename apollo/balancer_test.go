package apollo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shima-park/knuffimap"
)

func TestRoundRobin(t *testing.T) {
	expected := []string{
		"http://127.0.0.1:8080",
		"http://127.0.0.1:8081",
	}

	lb := NewRoundRobin(expected)
	for i := 0; i < 10; i++ {
		actual, err := lb.Select()
		require.NoError(t, err)
		assert.Equal(t, expected[i%len(expected)], actual)
	}

	_, err := NewRoundRobin(nil).Select()
	assert.Equal(t, ErrNoConfigServerAvailable, err)
}

func TestAutoFetchBalancer(t *testing.T) {
	var calls int32
	getConfigServers := func(ctx context.Context, metaServerURL, appID string) (int, []ConfigServer, error) {
		assert.Equal(t, "http://meta:8080", metaServerURL)
		if atomic.AddInt32(&calls, 1) == 1 {
			return 200, []ConfigServer{{HomePageURL: "http://127.0.0.1:8080/"}}, nil
		}
		return 200, []ConfigServer{
			{HomePageURL: "http://127.0.0.1:8080/"},
			{HomePageURL: "http://127.0.0.1:8081/"},
		}, nil
	}

	b, err := NewAutoFetchBalancer("meta:8080", "app", getConfigServers, 20*time.Millisecond, knuffimap.NewLogger())
	require.NoError(t, err)
	defer b.Stop()

	actual, err := b.Select()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", actual)

	assert.Eventually(t, func() bool {
		seen := map[string]bool{}
		for i := 0; i < 4; i++ {
			s, _ := b.Select()
			seen[s] = true
		}
		return seen["http://127.0.0.1:8081"]
	}, time.Second, 10*time.Millisecond)

	b.Stop()
}

func TestAutoFetchBalancerError(t *testing.T) {
	getConfigServers := func(ctx context.Context, metaServerURL, appID string) (int, []ConfigServer, error) {
		return 0, nil, context.DeadlineExceeded
	}
	_, err := NewAutoFetchBalancer("meta:8080", "app", getConfigServers, time.Second, knuffimap.NewLogger())
	assert.Equal(t, context.DeadlineExceeded, err)
}
