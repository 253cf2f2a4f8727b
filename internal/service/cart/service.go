package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"smoothiehouse/internal/domain"
	cartitemrepo "smoothiehouse/internal/repository/cartitem"
	catalogrepo "smoothiehouse/internal/repository/catalog"
	"smoothiehouse/internal/service/pricing"
)

type itemRepo interface {
	Create(ctx context.Context, item domain.LineItem) (*domain.LineItem, error)
	Upsert(ctx context.Context, ownerID, id string, item domain.LineItem) (*domain.LineItem, error)
	UpdateQuantity(ctx context.Context, ownerID, id string, quantity int, priceCents int64) error
	Delete(ctx context.Context, ownerID, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error)
	ApplyCorrections(ctx context.Context, ownerID string, corrections []cartitemrepo.Correction) error
	Subscribe(ctx context.Context, ownerID string, onSnapshot func([]domain.LineItem)) (func(), error)
}

type catalogRepo interface {
	ReadStock(ctx context.Context, category, key string) (*catalogrepo.StockInfo, error)
}

// Service owns the in-memory cart view per authenticated identity and proxies
// all mutations to the item store. The item store is the system of record;
// each session's snapshot is a cache kept live by subscription and replaced
// in full on every push.
type Service struct {
	items          itemRepo
	catalog        catalogRepo
	logger         *log.Logger
	reconcileEvery time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// session holds one identity's cart state. sess.mu serializes every mutation
// and reconciliation pass for the owner, so a user edit and a reconciler
// correction can never interleave on the same item.
type session struct {
	ownerID     string
	mu          sync.Mutex
	items       []domain.LineItem
	alerts      []domain.StockAlert
	promo       *domain.Promotion
	unsubscribe func()
	done        chan struct{}

	// reconciledCount is the item count as of the last reconciliation pass.
	// Comparing against it instead of the live snapshot catches count changes
	// made through this service, which the snapshot already reflects by the
	// time the store's push arrives.
	reconciledCount int
}

func New(items cartitemrepo.Repository, catalog catalogrepo.Repository, logger *log.Logger, reconcileEvery time.Duration) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if reconcileEvery <= 0 {
		reconcileEvery = 15 * time.Minute
	}
	return &Service{
		items:          items,
		catalog:        catalog,
		logger:         logger,
		reconcileEvery: reconcileEvery,
		sessions:       make(map[string]*session),
	}
}

// Attach opens a cart session for an identity: loads the current snapshot,
// subscribes to item-store pushes and starts the periodic reconciliation
// timer. Attaching an already-open session is a no-op.
func (s *Service) Attach(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	if _, ok := s.sessions[ownerID]; ok {
		s.mu.Unlock()
		return nil
	}
	sess := &session{ownerID: ownerID, done: make(chan struct{})}
	s.sessions[ownerID] = sess
	s.mu.Unlock()

	// Listen before the initial load so a change landing in between still
	// produces a notification. The subscription outlives the attaching
	// request; it ends on Detach.
	unsubscribe, err := s.items.Subscribe(context.Background(), ownerID, func(snapshot []domain.LineItem) {
		s.applySnapshot(sess, snapshot)
	})
	if err != nil {
		s.dropSession(ownerID)
		return err
	}
	sess.mu.Lock()
	sess.unsubscribe = unsubscribe
	sess.mu.Unlock()

	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		s.dropSession(ownerID)
		unsubscribe()
		return err
	}
	sess.mu.Lock()
	sess.items = items
	sess.mu.Unlock()

	go s.runTimer(sess)
	if len(items) > 0 {
		go s.reconcileSession(context.Background(), sess)
	}
	return nil
}

// Detach closes the identity's session: drops the in-memory cart, stops the
// reconciliation timer and unsubscribes from the item store.
func (s *Service) Detach(ownerID string) {
	sess := s.dropSession(ownerID)
	if sess == nil {
		return
	}
	sess.mu.Lock()
	unsubscribe := sess.unsubscribe
	sess.items = nil
	sess.alerts = nil
	sess.promo = nil
	sess.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	close(sess.done)
}

// Close detaches every open session. Used on shutdown.
func (s *Service) Close() {
	s.mu.Lock()
	owners := make([]string, 0, len(s.sessions))
	for owner := range s.sessions {
		owners = append(owners, owner)
	}
	s.mu.Unlock()
	for _, owner := range owners {
		s.Detach(owner)
	}
}

func (s *Service) dropSession(ownerID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[ownerID]
	delete(s.sessions, ownerID)
	return sess
}

func (s *Service) session(ownerID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[ownerID]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return sess, nil
}

func (s *Service) applySnapshot(sess *session, snapshot []domain.LineItem) {
	sess.mu.Lock()
	countChanged := len(snapshot) != sess.reconciledCount
	sess.items = snapshot
	sess.mu.Unlock()
	if countChanged {
		s.reconcileSession(context.Background(), sess)
	}
}

// reconcileOnCountChange re-validates the whole cart right away when the item
// count moved since the last pass. The periodic timer only covers stock drift
// on an unchanged cart.
func (s *Service) reconcileOnCountChange(ctx context.Context, sess *session) {
	sess.mu.Lock()
	changed := len(sess.items) != sess.reconciledCount
	sess.mu.Unlock()
	if changed {
		s.reconcileSession(ctx, sess)
	}
}

func (s *Service) runTimer(sess *session) {
	ticker := time.NewTicker(s.reconcileEvery)
	defer ticker.Stop()
	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			s.reconcileSession(context.Background(), sess)
		}
	}
}

// Items returns a copy of the identity's current cart snapshot.
func (s *Service) Items(ownerID string) ([]domain.LineItem, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return copyItems(sess.items), nil
}

// AddOrMergeItem adds a fully-specified candidate to the cart. A candidate
// matching an existing line's selection merges into it, preserving the unit
// price implied by the candidate. With editItemID set, the existing item is
// replaced in place without the duplicate-merge search.
func (s *Service) AddOrMergeItem(ctx context.Context, ownerID string, candidate domain.LineItem, editItemID string) (*domain.LineItem, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return nil, err
	}
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}
	saved, err := s.addOrMerge(ctx, sess, candidate, editItemID)
	if err != nil {
		return nil, err
	}
	s.reconcileOnCountChange(ctx, sess)
	return saved, nil
}

func (s *Service) addOrMerge(ctx context.Context, sess *session, candidate domain.LineItem, editItemID string) (*domain.LineItem, error) {
	ownerID := sess.ownerID

	sess.mu.Lock()
	defer sess.mu.Unlock()

	info, err := s.catalog.ReadStock(ctx, candidate.Category, candidate.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOutOfStock
		}
		return nil, err
	}

	candidate.OwnerID = ownerID
	candidate.Customized = true
	candidate.StockCached = info.Stock

	if editItemID != "" {
		if candidate.Quantity > info.Stock {
			return nil, domain.ErrOutOfStock
		}
		saved, err := s.items.Upsert(ctx, ownerID, editItemID, candidate)
		if err != nil {
			return nil, err
		}
		replaceItem(&sess.items, *saved)
		return saved, nil
	}

	key := candidate.SelectionKey()
	for i := range sess.items {
		if sess.items[i].SelectionKey() != key {
			continue
		}
		existing := sess.items[i]
		newQty := existing.Quantity + candidate.Quantity
		if newQty > domain.MaxQuantity {
			return nil, fmt.Errorf("%w: quantity limit reached", domain.ErrInvalidInput)
		}
		if newQty > info.Stock {
			return nil, domain.ErrOutOfStock
		}
		merged := existing
		merged.Quantity = newQty
		merged.PriceCents = (candidate.PriceCents / int64(candidate.Quantity)) * int64(newQty)
		merged.StockCached = info.Stock
		saved, err := s.items.Upsert(ctx, ownerID, existing.ID, merged)
		if err != nil {
			return nil, err
		}
		sess.items[i] = *saved
		return saved, nil
	}

	if candidate.Quantity > info.Stock {
		return nil, domain.ErrOutOfStock
	}
	saved, err := s.items.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}
	sess.items = append(sess.items, *saved)
	return saved, nil
}

// UpdateQuantity sets a line item's quantity, re-reading live stock first.
// Out-of-range quantities are a no-op by design; the price is recomputed from
// the unit price implied by the last save.
func (s *Service) UpdateQuantity(ctx context.Context, ownerID, itemID string, newQuantity int) (*domain.LineItem, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	idx := indexOf(sess.items, itemID)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	item := sess.items[idx]
	if newQuantity < 1 || newQuantity > domain.MaxQuantity {
		out := item
		return &out, nil
	}

	info, err := s.catalog.ReadStock(ctx, item.Category, item.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOutOfStock
		}
		return nil, err
	}
	if newQuantity > info.Stock {
		return nil, domain.ErrOutOfStock
	}

	newPrice := item.UnitPriceCents() * int64(newQuantity)
	if err := s.items.UpdateQuantity(ctx, ownerID, itemID, newQuantity, newPrice); err != nil {
		return nil, err
	}
	item.Quantity = newQuantity
	item.PriceCents = newPrice
	item.StockCached = info.Stock
	sess.items[idx] = item
	out := item
	return &out, nil
}

// RemoveItem deletes a line item. Removing an absent item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, ownerID, itemID string) error {
	sess, err := s.session(ownerID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if err := s.items.Delete(ctx, ownerID, itemID); err != nil {
		sess.mu.Unlock()
		return err
	}
	if idx := indexOf(sess.items, itemID); idx >= 0 {
		sess.items = append(sess.items[:idx], sess.items[idx+1:]...)
	}
	sess.mu.Unlock()
	s.reconcileOnCountChange(ctx, sess)
	return nil
}

// Clear deletes every line item for the identity, best effort. When only some
// deletes succeed the survivors stay in memory and a PartialClearError
// reports exactly what was left behind.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	sess, err := s.session(ownerID)
	if err != nil {
		return err
	}
	clearErr := s.clearItems(ctx, sess)
	s.reconcileOnCountChange(ctx, sess)
	return clearErr
}

func (s *Service) clearItems(ctx context.Context, sess *session) error {
	ownerID := sess.ownerID
	sess.mu.Lock()
	defer sess.mu.Unlock()

	var (
		survivors []domain.LineItem
		failed    []string
		firstErr  error
		deleted   int
	)
	for _, item := range sess.items {
		if err := s.items.Delete(ctx, ownerID, item.ID); err != nil {
			s.logger.Printf("cart: clear owner=%s item=%s delete failed: %v", ownerID, item.ID, err)
			survivors = append(survivors, item)
			failed = append(failed, item.ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	sess.items = survivors

	switch {
	case len(failed) == 0:
		return nil
	case deleted == 0:
		return firstErr
	default:
		return &domain.PartialClearError{Deleted: deleted, Failed: failed}
	}
}

// ApplyPromoCode activates the promotion for a recognized code. Any other
// code clears the active promotion and returns nil.
func (s *Service) ApplyPromoCode(ownerID, code string) (*domain.Promotion, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.promo = pricing.LookupPromo(code)
	return sess.promo, nil
}

// Totals computes the pricing breakdown of the current snapshot.
func (s *Service) Totals(ownerID string) (pricing.Totals, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return pricing.Totals{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return pricing.Calculate(sess.items, sess.promo), nil
}

// Alerts returns the advisory blocking flags from the last reconciliation
// run. The flags do not themselves prevent further mutations.
func (s *Service) Alerts(ownerID string) ([]domain.StockAlert, error) {
	sess, err := s.session(ownerID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.StockAlert, len(sess.alerts))
	copy(out, sess.alerts)
	return out, nil
}

func validateCandidate(c domain.LineItem) error {
	switch {
	case c.ProductID == "":
		return fmt.Errorf("%w: productId required", domain.ErrInvalidInput)
	case c.Quantity < 1:
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	case c.Quantity > domain.MaxQuantity:
		return fmt.Errorf("%w: quantity limit reached", domain.ErrInvalidInput)
	case len(c.Toppings) > domain.MaxToppings:
		return fmt.Errorf("%w: too many toppings", domain.ErrInvalidInput)
	case len(c.Boosters) > domain.MaxBoosters:
		return fmt.Errorf("%w: too many boosters", domain.ErrInvalidInput)
	}
	return nil
}

func copyItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

func indexOf(items []domain.LineItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func replaceItem(items *[]domain.LineItem, item domain.LineItem) {
	if idx := indexOf(*items, item.ID); idx >= 0 {
		(*items)[idx] = item
		return
	}
	*items = append(*items, item)
}
