package cart

import (
	"context"
	"errors"
	"fmt"

	"smoothiehouse/internal/domain"
	cartitemrepo "smoothiehouse/internal/repository/cartitem"
)

// Reconcile re-validates every line item of the identity's cart against live
// catalog stock. Items whose product vanished or hit zero stock are flagged
// for user action; items whose quantity exceeds stock are flagged and
// corrected down to stock in one all-or-nothing batch. The advisory flag set
// is replaced in full on every run. Reconciliation never surfaces per-item
// read failures; such items are skipped untouched.
func (s *Service) Reconcile(ctx context.Context, ownerID string) error {
	sess, err := s.session(ownerID)
	if err != nil {
		return err
	}
	s.reconcileSession(ctx, sess)
	return nil
}

// ValidateStock runs the reconciliation algorithm as a pure check, with no
// corrective writes and no session state changes. Checkout must not proceed
// while any alert is returned.
func (s *Service) ValidateStock(ctx context.Context, ownerID string) ([]domain.StockAlert, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	alerts, _ := s.checkItems(ctx, sess.items)
	return alerts, nil
}

func (s *Service) reconcileSession(ctx context.Context, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.reconciledCount = len(sess.items)
	if len(sess.items) == 0 {
		sess.alerts = nil
		return
	}

	alerts, corrections := s.checkItems(ctx, sess.items)

	if len(corrections) > 0 {
		if err := s.items.ApplyCorrections(ctx, sess.ownerID, corrections); err != nil {
			// Remote batch failed: leave the in-memory cart at its
			// pre-reconciliation state. The flag set still reflects this run.
			s.logger.Printf("cart: reconcile owner=%s corrections failed: %v", sess.ownerID, err)
			sess.alerts = alerts
			return
		}
		for _, c := range corrections {
			if idx := indexOf(sess.items, c.ItemID); idx >= 0 {
				sess.items[idx].Quantity = c.Quantity
				sess.items[idx].PriceCents = c.PriceCents
				sess.items[idx].StockCached = c.Stock
			}
		}
	}
	sess.alerts = alerts
}

// checkItems is the shared per-item pass of Reconcile and ValidateStock.
// Quantities are only ever reduced, never increased.
func (s *Service) checkItems(ctx context.Context, items []domain.LineItem) ([]domain.StockAlert, []cartitemrepo.Correction) {
	var (
		alerts      []domain.StockAlert
		corrections []cartitemrepo.Correction
	)
	for _, item := range items {
		info, err := s.catalog.ReadStock(ctx, item.Category, item.ProductID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			alerts = append(alerts, outOfStockAlert(item))
		case err != nil:
			// One bad read must not abort the whole pass.
			s.logger.Printf("cart: stock read owner=%s item=%s product=%s failed: %v", item.OwnerID, item.ID, item.ProductID, err)
		case info.Stock == 0:
			alerts = append(alerts, outOfStockAlert(item))
		case info.Stock < item.Quantity:
			alerts = append(alerts, domain.StockAlert{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Stock:     info.Stock,
				Message:   reduceQuantityMessage(item.Name, info.Stock),
			})
			corrections = append(corrections, cartitemrepo.Correction{
				ItemID:     item.ID,
				Quantity:   info.Stock,
				PriceCents: item.UnitPriceCents() * int64(info.Stock),
				Stock:      info.Stock,
			})
		}
	}
	return alerts, corrections
}

func outOfStockAlert(item domain.LineItem) domain.StockAlert {
	return domain.StockAlert{
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Stock:     0,
		Message:   fmt.Sprintf("%s is out of stock. Please remove it from your cart to proceed.", item.Name),
	}
}

func reduceQuantityMessage(name string, stock int) string {
	return fmt.Sprintf("Only %d %s(s) available in stock. Please reduce quantity to %d to proceed.", stock, name, stock)
}
