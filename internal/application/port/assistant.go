package port

import (
	"context"

	"github.com/bnema/voce/internal/domain/entity"
)

// CommandSource produces assistant commands. Next blocks until a command is
// available, ctx is canceled, or the source is exhausted (io.EOF).
type CommandSource interface {
	Next(ctx context.Context) (entity.Command, error)
}

// Speaker renders the assistant's own output, such as the welcome greeting.
type Speaker interface {
	Welcome(ctx context.Context) error
}
