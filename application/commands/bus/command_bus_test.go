package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type pingCommand struct{ ok bool }

func (c pingCommand) Validate() error {
	if !c.ok {
		return errors.New("not ok")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

func TestCommandBus_Send(t *testing.T) {
	var order []string
	trace := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}

	b := NewCommandBus(trace("outer"), LoggingMiddleware(zaptest.NewLogger(t)), trace("inner"))
	calls := 0
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		calls++
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), pingCommand{ok: true}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"outer", "inner"}, order)

	assert.EqualError(t, b.Send(context.Background(), pingCommand{}), "not ok")
	assert.Equal(t, 1, calls)

	assert.ErrorIs(t, b.Send(context.Background(), otherCommand{}), ErrHandlerNotFound)
}

func TestCommandBus_RegisterTwice(t *testing.T) {
	b := NewCommandBus()
	h := CommandHandlerFunc(func(context.Context, Command) error { return nil })
	require.NoError(t, b.Register(pingCommand{}, h))
	assert.Error(t, b.Register(pingCommand{}, h))
}

func TestCommandBus_HandlerErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	b := NewCommandBus(LoggingMiddleware(zaptest.NewLogger(t)))
	require.NoError(t, b.Register(otherCommand{}, CommandHandlerFunc(func(context.Context, Command) error { return boom })))
	assert.ErrorIs(t, b.Send(context.Background(), otherCommand{}), boom)
}
