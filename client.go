package searchdex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/vareon/searchdex/schema"
)

// StoreClient executes commands against the search store. The core never
// opens connections itself; any implementation that can run a command by name
// with positional arguments and report server capabilities will do.
type StoreClient interface {
	Execute(ctx context.Context, cmd string, args []string) (rueidis.RedisMessage, error)
	Capabilities(ctx context.Context) (Capabilities, error)
}

// Capabilities are the server features relevant to index creation.
type Capabilities struct {
	Search        bool
	JSON          bool
	SearchVersion int64
}

// SupportsAlgorithm reports whether the server can index vectors with the
// given algorithm. Both FLAT and HNSW ship with the search module.
func (c Capabilities) SupportsAlgorithm(_ schema.VectorAlgorithm) bool {
	return c.Search
}

// Config holds connection parameters for the bundled rueidis client.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Compile-time check: Client implements StoreClient.
var _ StoreClient = (*Client)(nil)

// Client is the bundled StoreClient over rueidis.
type Client struct {
	rc rueidis.Client
}

// NewClient connects to the store via rueidis.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("searchdex: addrs is required")
	}

	rc, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("searchdex: create client: %w", err)
	}

	return &Client{rc: rc}, nil
}

// NewClientFromRueidis wraps an existing rueidis client. The caller keeps
// ownership and closes it.
func NewClientFromRueidis(rc rueidis.Client) *Client {
	return &Client{rc: rc}
}

// Execute runs a single command and returns the raw reply.
func (c *Client) Execute(ctx context.Context, cmd string, args []string) (rueidis.RedisMessage, error) {
	built := c.rc.B().Arbitrary(cmd).Args(args...).Build()
	return c.rc.Do(ctx, built).ToMessage()
}

// Capabilities probes MODULE LIST for the search and JSON modules.
func (c *Client) Capabilities(ctx context.Context) (Capabilities, error) {
	msg, err := c.Execute(ctx, "MODULE", []string{"LIST"})
	if err != nil {
		return Capabilities{}, fmt.Errorf("searchdex: module list: %w", err)
	}
	mods, err := msg.ToArray()
	if err != nil {
		return Capabilities{}, fmt.Errorf("searchdex: module list: %w", err)
	}

	var caps Capabilities
	for _, mod := range mods {
		entry, err := mod.ToArray()
		if err != nil {
			continue
		}
		var name string
		var ver int64
		for i := 0; i+1 < len(entry); i += 2 {
			key, err := entry[i].ToString()
			if err != nil {
				continue
			}
			switch key {
			case "name":
				name, _ = entry[i+1].ToString()
			case "ver":
				ver, _ = entry[i+1].AsInt64()
			}
		}
		switch strings.ToLower(name) {
		case "search", "searchlight":
			caps.Search = true
			caps.SearchVersion = ver
		case "rejson", "json":
			caps.JSON = true
		}
	}
	return caps, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	cmd := c.rc.B().Ping().Build()
	if err := c.rc.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("searchdex: ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("searchdex: store not ready: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close shuts down the underlying client.
func (c *Client) Close() {
	c.rc.Close()
}
