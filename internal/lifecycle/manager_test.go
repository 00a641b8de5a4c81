package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	m.Register("journal", func(context.Context) error {
		order = append(order, "journal")
		return nil
	})
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})
	m.Register("ignored", nil)

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "journal"}, order)
}

func TestShutdownCollectsErrors(t *testing.T) {
	m := New(time.Second, nil)
	boom := errors.New("boom")

	ran := false
	m.Register("first", func(context.Context) error {
		ran = true
		return nil
	})
	m.Register("second", func(context.Context) error { return boom })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "stop second: boom")
	assert.True(t, ran)
}

func TestShutdownAppliesTimeout(t *testing.T) {
	m := New(10*time.Millisecond, nil)

	var deadline bool
	m.Register("slow", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, deadline)
}

func TestShutdownRunsOnce(t *testing.T) {
	m := New(time.Second, nil)

	calls := 0
	m.Register("journal", func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestWaitReturnsWhenContextEnds(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, m.Wait(ctx))
}

func TestWaitReturnsFirstFailure(t *testing.T) {
	m := New(time.Second, nil)
	refused := errors.New("address already in use")

	m.Fail("http_server", refused)
	m.Fail("http_server", errors.New("later"))
	m.Fail("journal", nil)

	err := m.Wait(context.Background())
	assert.ErrorIs(t, err, refused)
	assert.EqualError(t, err, "http_server: address already in use")
}
