package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshdurbin/shortlink/internal/domain"
)

// Commands provides command-line operations for the client
type Commands struct {
	client *Client
	out    io.Writer
}

// NewCommands creates a new Commands instance printing to stdout
func NewCommands(client *Client) *Commands {
	return &Commands{
		client: client,
		out:    os.Stdout,
	}
}

// Write creates or updates a single mapping and displays the result.
// An empty path asks the server for a short link.
func (c *Commands) Write(ctx context.Context, path, url string) error {
	items, err := c.client.WriteMappings(ctx, []domain.WriteRequest{{Path: path, URL: url}})
	if err != nil {
		return err
	}

	item := items[0]
	if item.Error != "" {
		return fmt.Errorf("write rejected: %s", item.Error)
	}

	fmt.Fprintf(c.out, "Mapping written:\n")
	fmt.Fprintf(c.out, "Path: %s\n", item.Path)
	fmt.Fprintf(c.out, "Short URL: %s/%s\n", c.client.ServerURL(), item.Path)
	fmt.Fprintf(c.out, "URL: %s\n", item.URL)

	return nil
}

// Resolve looks up a path and displays the mapped URL
func (c *Commands) Resolve(ctx context.Context, path string) error {
	response, err := c.client.Resolve(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			fmt.Fprintf(c.out, "Path '%s' not found\n", path)
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Path: %s\n", response.Path)
	fmt.Fprintf(c.out, "URL: %s\n", response.URL)

	return nil
}
