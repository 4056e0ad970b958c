package mongo

import (
	"context"

	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// UnitOfWork collects side effects that must run strictly after the
// enclosing transaction commits. Hooks are fire-and-forget: a failing or
// panicking hook is logged and never affects the transaction's result.
type UnitOfWork struct {
	hooks []func(ctx context.Context)
}

// OnCommit registers a post-commit hook. Hooks run in registration order.
func (u *UnitOfWork) OnCommit(hook func(ctx context.Context)) {
	u.hooks = append(u.hooks, hook)
}

// reset drops all registered hooks. Called at the start of every
// transaction attempt so hooks from an aborted attempt cannot publish
// state that was rolled back.
func (u *UnitOfWork) reset() {
	u.hooks = nil
}

func (u *UnitOfWork) runHooks(ctx context.Context, log *logger.Logger) {
	for _, hook := range u.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("Post-commit hook panicked", "panic", r)
				}
			}()
			hook(ctx)
		}()
	}
}

type TransactionFunc func(ctx mongo.SessionContext, uow *UnitOfWork) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
	log    *logger.Logger
}

func NewTransactionManager(client *mongo.Client, log *logger.Logger) TransactionManager {
	return &mongoTransactionManager{
		client: client,
		log:    log,
	}
}

// ExecuteTransaction runs fn inside a single mongo session transaction.
// All writes either commit together or roll back together; post-commit
// hooks registered on the unit of work run only after a successful commit.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return apperrors.TransactionFailed(err)
	}
	defer session.EndSession(ctx)

	uow := &UnitOfWork{}
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		// The driver retries this callback on transient errors and
		// write conflicts; only the committed attempt's hooks may run.
		uow.reset()
		return nil, fn(sessCtx, uow)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.TransactionFailed(err)
	}

	uow.runHooks(ctx, m.log)
	return nil
}
