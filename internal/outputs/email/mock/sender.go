package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/freegame-alerts/internal/outputs/email"
)

type Sender struct {
	Err error

	mu       sync.Mutex
	Messages []email.Message
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Messages = append(s.Messages, message)
	return nil
}
