package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"openpeer/internal/message"
)

// ContentType is sent with every POSTed message.
const ContentType = "application/xml"

// HTTP is a client transport. Destinations resolve through the route table:
// first the destination itself, then the handler of the message. A
// destination that already is an http(s) URL is used as is.
type HTTP struct {
	HTTP *http.Client
	recv Receiver

	mu     sync.RWMutex
	routes map[string]string
}

func NewHTTP(recv Receiver) *HTTP {
	return &HTTP{HTTP: http.DefaultClient, recv: recv, routes: make(map[string]string)}
}

// SetRoute maps a destination or handler name to a URL.
func (c *HTTP) SetRoute(name, url string) {
	c.mu.Lock()
	c.routes[name] = url
	c.mu.Unlock()
}

// Route returns the URL for name.
func (c *HTTP) Route(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.routes[name]
	return u, ok
}

func (c *HTTP) resolve(to string, m message.Message) (string, error) {
	if strings.HasPrefix(to, "http://") || strings.HasPrefix(to, "https://") {
		return to, nil
	}
	if u, ok := c.Route(to); ok {
		return u, nil
	}
	if u, ok := c.Route(string(m.Head().Handler)); ok {
		return u, nil
	}
	return "", fmt.Errorf("%s: %w", to, ErrNoRoute)
}

// Send POSTs m and delivers a non-empty response body as the reply.
func (c *HTTP) Send(ctx context.Context, to string, m message.Message) error {
	u, err := c.resolve(to, m)
	if err != nil {
		return err
	}
	b, err := message.EncodeBytes(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", ContentType)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", u, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) > 0 && c.recv != nil {
		c.recv.Deliver(body, to)
	}
	return nil
}
