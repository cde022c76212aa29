package provider

import (
	"context"
	"fmt"
)

// Completer is the narrow delegation interface used by components that ask
// a text model for help (request classification, balanced ranking).
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AdapterCompleter binds an adapter and a fixed model into a Completer.
type AdapterCompleter struct {
	Adapter Adapter
	Model   string
}

// Complete sends the prompt through the adapter and returns the reply text.
func (c AdapterCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.Adapter == nil {
		return "", fmt.Errorf("no adapter configured for delegation")
	}
	resp, err := c.Adapter.SendMessage(ctx, c.Model, prompt)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion from %s", c.Adapter.Name())
	}
	return text, nil
}
