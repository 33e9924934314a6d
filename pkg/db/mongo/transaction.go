package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "turfbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"

	maxCommitAttempts = 3
)

// ErrTransientTransaction marks a transaction the server aborted because of a
// concurrent write. The whole transaction may be retried by the caller.
var ErrTransientTransaction = errors.New("transaction aborted by a concurrent write")

// TransactionFunc runs inside a transaction. The context it receives is a
// mongo.SessionContext, so repository calls made with it join the transaction.
type TransactionFunc func(ctx context.Context) error

// TransactionManager runs fn in a single transaction attempt. Write conflicts
// are returned as ErrTransientTransaction instead of being retried here, so
// callers keep control of how many attempts a request gets.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// txSession is the part of mongo.Session a transaction attempt uses.
type txSession interface {
	StartTransaction(opts ...*options.TransactionOptions) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	bind(ctx context.Context) context.Context
}

type driverSession struct {
	mongo.Session
}

func (s driverSession) bind(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, s.Session)
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	return runTransaction(ctx, driverSession{session}, fn)
}

func runTransaction(ctx context.Context, session txSession, fn TransactionFunc) error {
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	if err := session.StartTransaction(opts); err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(session.bind(ctx)); err != nil {
		_ = session.AbortTransaction(context.WithoutCancel(ctx))
		return transactionError(err)
	}

	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		err = session.CommitTransaction(context.WithoutCancel(ctx))
		if err == nil || !hasErrorLabel(err, labelUnknownCommitResult) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return transactionError(err)
	}
	return nil
}

func transactionError(err error) error {
	if hasErrorLabel(err, labelTransientTransaction) {
		return fmt.Errorf("%w: %w", ErrTransientTransaction, err)
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return fmt.Errorf("transaction failed: %w", err)
}

// IsTransientTransactionError reports whether the server labelled err as a
// transaction the caller may retry from the start.
func IsTransientTransactionError(err error) bool {
	return errors.Is(err, ErrTransientTransaction) || hasErrorLabel(err, labelTransientTransaction)
}

func hasErrorLabel(err error, label string) bool {
	var labeled mongo.LabeledError
	return errors.As(err, &labeled) && labeled.HasErrorLabel(label)
}

// IsSessionContext reports whether ctx already belongs to a transaction.
func IsSessionContext(ctx context.Context) bool {
	_, ok := ctx.(mongo.SessionContext)
	return ok
}
