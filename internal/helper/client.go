// client.go provides a client for communicating with the privileged helper via Unix socket.
// The helper runs as root and owns writes to the RTC wake alarm.
package helper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// Client communicates with the privileged helper. It implements
// rtc.Programmer.
type Client struct {
	socketPath string
}

// NewClient creates a new helper client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
	}
}

// Available returns true if the helper socket exists and is accessible.
func (c *Client) Available() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Program asks the helper to arm the wake alarm at at.
func (c *Client) Program(ctx context.Context, at time.Time) error {
	return c.do(ctx, Request{Type: RequestTypeSetWakealarm, Unix: at.Unix()})
}

// Clear asks the helper to disarm the wake alarm.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, Request{Type: RequestTypeClearWakealarm})
}

func (c *Client) do(ctx context.Context, req Request) error {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, err := d.DialContext(dialCtx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("helper not available: %w", err)
	}
	defer conn.Close()

	// Set deadline from context
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(10 * time.Second))
	}

	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if !resp.Success {
		if resp.Error == "" {
			return errors.New("helper error: request failed")
		}
		return fmt.Errorf("helper error: %s", resp.Error)
	}
	return nil
}
