package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type renameCommand struct {
	Name string
}

func (c renameCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type archiveCommand struct{}

func (archiveCommand) Validate() error { return nil }

func TestCommandBus_Send(t *testing.T) {
	t.Run("dispatches to the handler of the command type", func(t *testing.T) {
		// Arrange
		b := NewCommandBus()
		require.NoError(t, b.Register(renameCommand{}, Typed(func(_ context.Context, cmd renameCommand) (string, error) {
			return "renamed to " + cmd.Name, nil
		})))

		// Act
		result, err := b.Send(context.Background(), renameCommand{Name: "lunch"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "renamed to lunch", result)
	})

	t.Run("invalid commands never reach the handler", func(t *testing.T) {
		// Arrange
		called := false
		b := NewCommandBus()
		require.NoError(t, b.Register(renameCommand{}, TypedNoResult(func(context.Context, renameCommand) error {
			called = true
			return nil
		})))

		// Act
		_, err := b.Send(context.Background(), renameCommand{})

		// Assert
		assert.ErrorContains(t, err, "command validation failed")
		assert.False(t, called)
	})

	t.Run("handler errors stay matchable", func(t *testing.T) {
		// Arrange
		boom := errors.New("boom")
		b := NewCommandBus()
		require.NoError(t, b.Register(archiveCommand{}, TypedNoResult(func(context.Context, archiveCommand) error {
			return boom
		})))

		// Act
		result, err := b.Send(context.Background(), archiveCommand{})

		// Assert
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, result)
	})

	t.Run("unregistered command", func(t *testing.T) {
		_, err := NewCommandBus().Send(context.Background(), archiveCommand{})

		assert.ErrorIs(t, err, ErrHandlerNotFound)
	})
}

func TestCommandBus_RegisterTwice(t *testing.T) {
	// Arrange
	b := NewCommandBus()
	handler := TypedNoResult(func(context.Context, archiveCommand) error { return nil })
	require.NoError(t, b.Register(archiveCommand{}, handler))

	// Act
	err := b.Register(archiveCommand{}, handler)

	// Assert
	assert.ErrorIs(t, err, ErrHandlerRegistered)
}

func TestTyped_RejectsOtherCommands(t *testing.T) {
	handler := TypedNoResult(func(context.Context, archiveCommand) error { return nil })

	_, err := handler.Handle(context.Background(), renameCommand{Name: "x"})

	assert.ErrorIs(t, err, ErrUnexpectedCommand)
}

func TestLoggingMiddleware(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewCommandBus(LoggingMiddleware(zap.New(core)))
	require.NoError(t, b.Register(archiveCommand{}, TypedNoResult(func(context.Context, archiveCommand) error {
		return errors.New("boom")
	})))
	require.NoError(t, b.Register(renameCommand{}, TypedNoResult(func(context.Context, renameCommand) error {
		return nil
	})))

	// Act
	_, _ = b.Send(context.Background(), archiveCommand{})
	_, _ = b.Send(context.Background(), renameCommand{Name: "x"})

	// Assert
	failed := logs.FilterMessage("command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "archiveCommand", failed[0].ContextMap()["type"])
	assert.Equal(t, 1, logs.FilterMessage("command succeeded").Len())
}
