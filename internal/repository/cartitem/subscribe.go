package cartitem

import (
	"context"
	"errors"

	"smoothiehouse/internal/domain"
)

// Subscribe pushes a full owner snapshot on every cart_items change, using
// Postgres LISTEN/NOTIFY on a dedicated pooled connection. The notify trigger
// is installed by the migrations. The returned function unsubscribes; the
// subscription also ends when ctx is cancelled. onSnapshot is invoked from a
// single goroutine, never concurrently with itself.
func (r *postgresRepo) Subscribe(ctx context.Context, ownerID string, onSnapshot func([]domain.LineItem)) (func(), error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, `LISTEN cart_items`); err != nil {
		conn.Release()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		// Closing the underlying connection on exit discards the LISTEN
		// state instead of returning a listening connection to the pool.
		defer func() {
			conn.Conn().Close(context.Background())
			conn.Release()
		}()
		for {
			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					r.logger.Printf("cartitem repo: subscription owner=%s ended: %v", ownerID, err)
				}
				return
			}
			if notification.Payload != ownerID {
				continue
			}
			items, err := r.ListByOwner(subCtx, ownerID)
			if err != nil {
				r.logger.Printf("cartitem repo: snapshot reload owner=%s error=%v", ownerID, err)
				continue
			}
			onSnapshot(items)
		}
	}()
	return cancel, nil
}
