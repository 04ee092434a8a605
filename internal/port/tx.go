package port

import "context"

// TxManager runs fn inside a transaction carried by ctx. Repository calls
// made with that ctx participate in the transaction, and row locks taken
// through LockByID are held until fn returns.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
