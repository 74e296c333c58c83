package domain

import "context"

// Transactor runs fn as one atomic unit at the store boundary. Repository calls
// made with the context handed to fn join the transaction; if fn returns an error
// nothing it wrote is kept. Nested calls reuse the outer transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
