package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner executes a function inside a single transaction. Repositories that
// must commit multiple writes atomically (role synchronization in particular)
// depend on this interface; tests substitute a pass-through implementation.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTxnRunner struct {
	client *mongo.Client
}

func NewTxnRunner(mongodb *MongodbDB) TxnRunner {
	return &mongoTxnRunner{client: mongodb.Client}
}

func (r *mongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
