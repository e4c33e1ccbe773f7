// Package mq reads queue state from the message broker's management REST API.
package mq

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

// Queue is the state of one broker queue.
type Queue struct {
	Name      string `json:"name"`
	VHost     string `json:"vhost"`
	Messages  int    `json:"messages"`
	Ready     int    `json:"messages_ready"`
	Unacked   int    `json:"messages_unacknowledged"`
	Consumers int    `json:"consumers"`
	State     string `json:"state"`
}

// Client talks to the broker management API.
type Client struct {
	client *resty.Client
	vhost  string
}

func NewClient(cfg config.MQConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return &Client{client: client, vhost: "/"}
}

// Queues lists every queue, sorted by name.
func (c *Client) Queues(ctx context.Context) ([]Queue, error) {
	const op = "mq.Queues"

	var queues []Queue
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&queues).
		Get("/queues")
	if err := classify(op, resp, err); err != nil {
		return nil, err
	}
	if queues == nil {
		queues = []Queue{}
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].Name < queues[j].Name })
	return queues, nil
}

// Queue returns one queue of the default virtual host.
func (c *Client) Queue(ctx context.Context, name string) (*Queue, error) {
	const op = "mq.Queue"

	if strings.TrimSpace(name) == "" {
		return nil, apperrors.Validation(op, "queue name is required")
	}

	var q Queue
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"vhost": c.vhost, "name": name}).
		SetResult(&q).
		Get("/queues/{vhost}/{name}")
	if err := classify(op, resp, err); err != nil {
		return nil, err
	}
	return &q, nil
}

func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return apperrors.Upstream(op, err)
	}
	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusNotFound:
		return apperrors.NotFound(op, "queue not found")
	}
	return apperrors.Upstream(op, fmt.Errorf("message queue API returned %d", resp.StatusCode()))
}
