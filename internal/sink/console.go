package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"pump-listener/internal/domain"
)

const banner = "============================================="

// Console renders each event as a human-readable block.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Emit writes the event block. Write errors are returned.
func (c *Console) Emit(_ context.Context, e domain.TokenCreationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := io.WriteString(c.w, Format(e))
	return err
}

// Format renders e as the multi-line console block, trailing blank line included.
func Format(e domain.TokenCreationEvent) string {
	return fmt.Sprintf("%s\n"+
		"🔥 New Token Creation Detected!\n"+
		"   -> Name: %s ($%s)\n"+
		"   -> Mint Address: %s\n"+
		"   -> Creator Invested: %s SOL\n"+
		"   -> Creator: %s\n"+
		"   -> Link: %s\n"+
		"%s\n\n",
		banner,
		e.Name, e.Symbol,
		e.MintAddress,
		e.CreatorSolAmount,
		e.CreatorPublicKey,
		e.Link,
		banner,
	)
}
