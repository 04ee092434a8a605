package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	natspkg "github.com/nats-io/nats.go"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

type conn interface {
	Publish(subject string, data []byte) error
}

// Client publishes domain events as JSON, one subject per event type.
type Client struct {
	nc     *natspkg.Conn
	out    conn
	prefix string
}

func NewClient(url, prefix string) (*Client, error) {
	nc, err := natspkg.Connect(url,
		natspkg.Name("myblog"),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{nc: nc, out: nc, prefix: prefix}, nil
}

func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

func (c *Client) PublishUserRegistered(ctx context.Context, e domain.UserRegistered) error {
	return c.publish(domain.SubjectUserRegistered, e)
}

func (c *Client) PublishUserLoggedIn(ctx context.Context, e domain.UserLoggedIn) error {
	return c.publish(domain.SubjectUserLoggedIn, e)
}

func (c *Client) PublishUserLoggedOut(ctx context.Context, e domain.UserLoggedOut) error {
	return c.publish(domain.SubjectUserLoggedOut, e)
}

func (c *Client) PublishPostTagsChanged(ctx context.Context, e domain.PostTagsChanged) error {
	return c.publish(domain.SubjectPostTagsChanged, e)
}

func (c *Client) PublishTagDeleted(ctx context.Context, e domain.TagDeleted) error {
	return c.publish(domain.SubjectTagDeleted, e)
}

func (c *Client) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := c.out.Publish(c.prefix+subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

var _ port.Publisher = (*Client)(nil)
