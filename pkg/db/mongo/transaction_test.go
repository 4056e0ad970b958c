package mongo

import (
	"context"
	"io"
	"testing"

	"medibook/pkg/logger"
)

func testLog() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func TestUnitOfWork_HooksRunInRegistrationOrder(t *testing.T) {
	uow := &UnitOfWork{}
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		uow.OnCommit(func(ctx context.Context) {
			order = append(order, i)
		})
	}

	uow.runHooks(context.Background(), testLog())

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("expected hooks in registration order, got %v", order)
	}
}

func TestUnitOfWork_PanickingHookDoesNotStopOthers(t *testing.T) {
	uow := &UnitOfWork{}
	var ran bool
	uow.OnCommit(func(ctx context.Context) {
		panic("broker unreachable")
	})
	uow.OnCommit(func(ctx context.Context) {
		ran = true
	})

	uow.runHooks(context.Background(), testLog())

	if !ran {
		t.Error("expected hook after the panicking one to run")
	}
}

func TestUnitOfWork_NoHooks(t *testing.T) {
	uow := &UnitOfWork{}
	uow.runHooks(context.Background(), testLog())
}

// A write conflict makes the driver invoke the transaction callback
// more than once. Hooks registered by an aborted attempt describe
// rolled-back state and must never fire.
func TestUnitOfWork_RetryDropsHooksFromAbortedAttempts(t *testing.T) {
	uow := &UnitOfWork{}
	var published []string

	attempt := func(name string) {
		uow.reset()
		uow.OnCommit(func(ctx context.Context) {
			published = append(published, name)
		})
	}
	attempt("aborted")
	attempt("committed")

	uow.runHooks(context.Background(), testLog())

	if len(published) != 1 || published[0] != "committed" {
		t.Errorf("expected only the committed attempt's hook, got %v", published)
	}
}
