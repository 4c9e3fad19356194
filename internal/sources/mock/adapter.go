package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/freegame-alerts/internal/core"
)

// Response is one scripted Fetch result.
type Response struct {
	Items []core.ItemDescriptor
	Err   error
}

// Adapter replays Responses in order and then keeps returning Items/Err.
type Adapter struct {
	ID        core.Platform
	Responses []Response
	Items     []core.ItemDescriptor
	Err       error
	Panic     any
	// Hook runs before each fetch returns, e.g. to block or inspect ctx.
	Hook func(ctx context.Context)

	mu    sync.Mutex
	calls int
}

func (a *Adapter) Platform() core.Platform {
	return a.ID
}

func (a *Adapter) Fetch(ctx context.Context) ([]core.ItemDescriptor, error) {
	a.mu.Lock()
	call := a.calls
	a.calls++
	a.mu.Unlock()

	if a.Hook != nil {
		a.Hook(ctx)
	}
	if a.Panic != nil {
		panic(a.Panic)
	}

	items, err := a.Items, a.Err
	if call < len(a.Responses) {
		items, err = a.Responses[call].Items, a.Responses[call].Err
	}
	if err != nil {
		return nil, err
	}
	out := make([]core.ItemDescriptor, len(items))
	for i, item := range items {
		item.Platform = a.ID
		out[i] = item
	}
	return out, nil
}

func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
