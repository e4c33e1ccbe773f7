package mq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.MQConfig{BaseURL: srv.URL + "/api", Username: "guest", Password: "guest"})
}

func TestQueues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "guest", user)
		assert.Equal(t, "guest", pass)
		assert.Equal(t, "/api/queues", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"orders","messages":4},{"name":"billing","messages":12,"consumers":2}]`))
	})

	queues, err := client.Queues(context.Background())
	require.NoError(t, err)
	require.Len(t, queues, 2)
	assert.Equal(t, "billing", queues[0].Name)
	assert.Equal(t, 12, queues[0].Messages)
}

func TestQueue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/queues/%2F/billing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"billing","messages":7,"messages_unacknowledged":1}`))
	})

	q, err := client.Queue(context.Background(), "billing")
	require.NoError(t, err)
	assert.Equal(t, 7, q.Messages)
	assert.Equal(t, 1, q.Unacked)

	_, err = client.Queue(context.Background(), "missing")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = client.Queue(context.Background(), " ")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestQueuesUpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.Queues(context.Background())
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}
