// Package engine owns the simulated order lifecycle: placement, timed
// status transitions, cancellation, ETA countdowns, and the delivery-partner
// position used by the tracking map.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zestora/zestora-orders/internal/order/domain"
	"github.com/zestora/zestora-orders/internal/order/storage"
	"github.com/zestora/zestora-orders/internal/pkg/cache"
	"github.com/zestora/zestora-orders/internal/pkg/clock"
)

// Config tunes the simulation. SimMinute is the wall-clock duration of one
// simulated minute; the nominal 30-minute window compresses to 30*SimMinute
// of real time. It is an explicit value rather than a magic ratio.
type Config struct {
	TotalEtaMinutes     int           // nominal delivery window
	HandoffAfterMinutes int           // simulated minutes in preparing before handoff
	MinResumeEtaMinutes int           // floor shown while out for delivery
	SimMinute           time.Duration // wall-clock length of a simulated minute
	PartnerTick         time.Duration // interval between partner position updates
	PartnerStepFactor   float64       // fraction of remaining distance covered per tick
	IdempotencyTTL      time.Duration // retention of place-order idempotency keys
}

// DefaultConfig matches the demo's tracking behaviour: a 30-minute window
// compressed to one real second per minute, handoff after 5 minutes, partner
// easing 18% closer every 4 seconds.
func DefaultConfig() Config {
	return Config{
		TotalEtaMinutes:     domain.DefaultTotalEtaMinutes,
		HandoffAfterMinutes: 5,
		MinResumeEtaMinutes: 8,
		SimMinute:           time.Second,
		PartnerTick:         4 * time.Second,
		PartnerStepFactor:   0.18,
		IdempotencyTTL:      10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TotalEtaMinutes <= 0 {
		c.TotalEtaMinutes = def.TotalEtaMinutes
	}
	if c.HandoffAfterMinutes <= 0 {
		c.HandoffAfterMinutes = def.HandoffAfterMinutes
	}
	if c.MinResumeEtaMinutes < 0 {
		c.MinResumeEtaMinutes = def.MinResumeEtaMinutes
	}
	if c.SimMinute <= 0 {
		c.SimMinute = def.SimMinute
	}
	if c.PartnerTick <= 0 {
		c.PartnerTick = def.PartnerTick
	}
	if c.PartnerStepFactor <= 0 || c.PartnerStepFactor >= 1 {
		c.PartnerStepFactor = def.PartnerStepFactor
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = def.IdempotencyTTL
	}
	return c
}

// PlaceRequest is the payload handed over by the checkout flow.
type PlaceRequest struct {
	Items          []domain.Item
	PaymentMethod  string
	Address        domain.Address
	IdempotencyKey string
}

// Engine is the order lifecycle service. Construct it once at startup and
// inject it into consumers; all mutation goes through its methods and every
// mutation persists the whole collection (last writer wins).
type Engine struct {
	cfg   Config
	clk   clock.Clock
	store storage.Store
	idem  cache.Cache
	log   *slog.Logger

	mu       sync.RWMutex
	orders   []*domain.Order // most recent first
	byID     map[string]*domain.Order
	partners map[string]domain.Coordinate

	sched     *scheduler
	subs      *subscribers
	closeOnce sync.Once
}

// New constructs an engine. idem may be nil to disable idempotent placement;
// clk may be nil for the system clock.
func New(cfg Config, store storage.Store, idem cache.Cache, clk clock.Clock, logger *slog.Logger) *Engine {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:      cfg.withDefaults(),
		clk:      clk,
		store:    store,
		idem:     idem,
		log:      logger,
		byID:     make(map[string]*domain.Order),
		partners: make(map[string]domain.Coordinate),
	}
	e.sched = newScheduler(clk, e.dispatch)
	e.subs = newSubscribers()
	return e
}

// Load restores the persisted collection and reschedules pending transitions
// so a restarted service resumes a believable countdown. Stored statuses are
// trusted as-is.
func (e *Engine) Load(ctx context.Context) error {
	orders, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("engine: load orders: %w", err)
	}

	e.mu.Lock()
	e.orders = orders
	e.byID = make(map[string]*domain.Order, len(orders))
	for _, ord := range orders {
		e.byID[ord.ID] = ord
		if ord.Status == domain.StatusOutForDelivery {
			e.partners[ord.ID] = domain.PartnerStart(domain.CityBase(ord.Address.City))
		}
	}
	e.mu.Unlock()

	now := e.clk.Now()
	for _, ord := range orders {
		switch ord.Status {
		case domain.StatusPreparing:
			e.scheduleLifecycle(ord.ID, ord.CreatedAt)
		case domain.StatusOutForDelivery:
			e.sched.schedule(ord.CreatedAt.Add(time.Duration(e.cfg.TotalEtaMinutes)*e.cfg.SimMinute), ord.ID, fireDeliver)
			e.sched.schedule(now.Add(e.cfg.PartnerTick), ord.ID, firePartnerTick)
		}
	}
	e.log.Info("order collection loaded", "orders", len(orders))
	return nil
}

// Start runs the lifecycle scheduler. Close must be called to stop it.
func (e *Engine) Start() {
	e.sched.start()
}

// Close stops the scheduler and closes all event subscriptions.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.sched.stop()
		e.subs.close()
	})
}

// Subscribe returns a channel of status-change events and a cancel func.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.subs.subscribe()
}

// PlaceOrder creates an order in the preparing state at the head of the
// collection and schedules its automatic transitions. A repeated idempotency
// key returns the originally placed order instead of creating a duplicate.
func (e *Engine) PlaceOrder(ctx context.Context, req PlaceRequest) (domain.Order, error) {
	if req.IdempotencyKey != "" && e.idem != nil {
		key := e.idem.Key("place", req.IdempotencyKey)
		if id, err := e.idem.Get(ctx, key); err == nil {
			if ord, err := e.Order(id); err == nil {
				return ord, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			e.log.Warn("idempotency lookup failed", "error", err)
		}
	}

	now := e.clk.Now()
	ord := domain.NewOrder(req.Items, req.PaymentMethod, req.Address, now)

	e.mu.Lock()
	e.orders = append([]*domain.Order{ord}, e.orders...)
	e.byID[ord.ID] = ord
	snapshot := e.snapshotLocked()
	placed := cloneOrder(ord)
	e.mu.Unlock()

	e.persist(ctx, snapshot)
	e.scheduleLifecycle(ord.ID, now)

	if req.IdempotencyKey != "" && e.idem != nil {
		key := e.idem.Key("place", req.IdempotencyKey)
		if err := e.idem.Set(ctx, key, ord.ID, e.cfg.IdempotencyTTL); err != nil {
			e.log.Warn("idempotency record failed", "order_id", ord.ID, "error", err)
		}
	}

	e.log.Info("order placed", "order_id", ord.ID, "grand_total", ord.Totals.GrandTotal)
	e.subs.publish(Event{OrderID: ord.ID, Status: ord.Status, At: now})
	return placed, nil
}

// UpdateOrderStatus applies a status change after validating it against the
// state machine. It returns domain.ErrNotFound for unknown ids and
// domain.ErrInvalidTransition for anything the machine forbids, which makes
// late timer callbacks on terminal orders harmless.
func (e *Engine) UpdateOrderStatus(ctx context.Context, orderID string, next domain.Status) (domain.Order, error) {
	e.mu.Lock()
	ord, ok := e.byID[orderID]
	if !ok {
		e.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrNotFound, orderID)
	}
	if err := domain.Transition(ord.Status, next); err != nil {
		e.mu.Unlock()
		return domain.Order{}, err
	}

	ord.Status = next
	if next == domain.StatusOutForDelivery {
		e.partners[orderID] = domain.PartnerStart(domain.CityBase(ord.Address.City))
	}
	if next.Terminal() {
		delete(e.partners, orderID)
	}
	snapshot := e.snapshotLocked()
	updated := cloneOrder(ord)
	e.mu.Unlock()

	e.persist(ctx, snapshot)
	if next == domain.StatusOutForDelivery {
		e.sched.schedule(e.clk.Now().Add(e.cfg.PartnerTick), orderID, firePartnerTick)
	}

	e.log.Info("order status updated", "order_id", orderID, "status", next)
	e.subs.publish(Event{OrderID: orderID, Status: next, At: e.clk.Now()})
	return updated, nil
}

// CancelOrder cancels an order on customer request. Only orders still in
// preparing or out_for_delivery can be cancelled; the transition takes
// effect synchronously and any pending timer for the order becomes a no-op.
func (e *Engine) CancelOrder(ctx context.Context, orderID string, req domain.CancellationRequest) (domain.Order, error) {
	e.mu.Lock()
	ord, ok := e.byID[orderID]
	if !ok {
		e.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrNotFound, orderID)
	}
	if err := domain.Transition(ord.Status, domain.StatusCancelled); err != nil {
		e.mu.Unlock()
		return domain.Order{}, err
	}

	now := e.clk.Now()
	record := req.Normalize(now)
	ord.Status = domain.StatusCancelled
	ord.CancelledAt = &now
	ord.Cancellation = &record
	delete(e.partners, orderID)

	snapshot := e.snapshotLocked()
	cancelled := cloneOrder(ord)
	e.mu.Unlock()

	e.persist(ctx, snapshot)
	e.log.Info("order cancelled", "order_id", orderID, "reason", record.Reason)
	e.subs.publish(Event{OrderID: orderID, Status: domain.StatusCancelled, At: now})
	return cancelled, nil
}

// Orders returns the collection, most recent first.
func (e *Engine) Orders() []domain.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Order, len(e.orders))
	for i, ord := range e.orders {
		out[i] = cloneOrder(ord)
	}
	return out
}

// Order returns a single order by id.
func (e *Engine) Order(orderID string) (domain.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ord, ok := e.byID[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrNotFound, orderID)
	}
	return cloneOrder(ord), nil
}

// Eta returns the remaining countdown in simulated minutes.
func (e *Engine) Eta(orderID string) (int, error) {
	e.mu.RLock()
	ord, ok := e.byID[orderID]
	if !ok {
		e.mu.RUnlock()
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, orderID)
	}
	status, createdAt := ord.Status, ord.CreatedAt
	e.mu.RUnlock()
	return e.etaFor(status, createdAt), nil
}

func (e *Engine) etaFor(status domain.Status, createdAt time.Time) int {
	if status.Terminal() {
		return 0
	}
	eta := domain.DeriveEta(createdAt, e.clk.Now(), e.cfg.TotalEtaMinutes, e.cfg.SimMinute)
	// A resumed out-for-delivery countdown never shows less than the floor
	// until the delivery actually fires.
	if status == domain.StatusOutForDelivery && eta < e.cfg.MinResumeEtaMinutes {
		eta = e.cfg.MinResumeEtaMinutes
	}
	return eta
}

// scheduleLifecycle enqueues the automatic transitions for a preparing
// order, both derived solely from its createdAt so each order runs on its
// own clock.
func (e *Engine) scheduleLifecycle(orderID string, createdAt time.Time) {
	handoffAt := createdAt.Add(time.Duration(e.cfg.HandoffAfterMinutes) * e.cfg.SimMinute)
	deliverAt := createdAt.Add(time.Duration(e.cfg.TotalEtaMinutes) * e.cfg.SimMinute)
	e.sched.schedule(handoffAt, orderID, fireHandoff)
	e.sched.schedule(deliverAt, orderID, fireDeliver)
}

// dispatch runs on the scheduler goroutine.
func (e *Engine) dispatch(due entry) {
	switch due.kind {
	case fireHandoff:
		e.autoTransition(due.orderID, domain.StatusOutForDelivery)
	case fireDeliver:
		e.autoTransition(due.orderID, domain.StatusDelivered)
	case firePartnerTick:
		e.partnerTick(due.orderID)
	}
}

func (e *Engine) autoTransition(orderID string, next domain.Status) {
	_, err := e.UpdateOrderStatus(context.Background(), orderID, next)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition):
		// The order was cancelled, already advanced, or never existed.
		// Late timers must not re-fire side effects.
	default:
		e.log.Error("automatic transition failed", "order_id", orderID, "next", next, "error", err)
	}
}

// partnerTick eases the simulated partner toward the customer while the
// order is out for delivery, then reschedules itself. It stops silently the
// moment the status leaves out_for_delivery.
func (e *Engine) partnerTick(orderID string) {
	e.mu.Lock()
	ord, ok := e.byID[orderID]
	if !ok || ord.Status != domain.StatusOutForDelivery {
		e.mu.Unlock()
		return
	}
	base := domain.CityBase(ord.Address.City)
	current, ok := e.partners[orderID]
	if !ok {
		current = domain.PartnerStart(base)
	}
	e.partners[orderID] = domain.StepToward(current, domain.CustomerPoint(base), e.cfg.PartnerStepFactor)
	e.mu.Unlock()

	e.sched.schedule(e.clk.Now().Add(e.cfg.PartnerTick), orderID, firePartnerTick)
}

// snapshotLocked copies the order slice for persistence. Callers hold e.mu.
func (e *Engine) snapshotLocked() []*domain.Order {
	snapshot := make([]*domain.Order, len(e.orders))
	for i, ord := range e.orders {
		clone := cloneOrder(ord)
		snapshot[i] = &clone
	}
	return snapshot
}

// persist is best-effort: a failed save is logged, never surfaced, because
// the in-memory state remains authoritative for the session.
func (e *Engine) persist(ctx context.Context, snapshot []*domain.Order) {
	if err := e.store.Save(ctx, snapshot); err != nil {
		e.log.Warn("persisting order collection failed", "error", err)
	}
}

func cloneOrder(o *domain.Order) domain.Order {
	out := *o
	out.Items = append([]domain.Item(nil), o.Items...)
	if o.CancelledAt != nil {
		at := *o.CancelledAt
		out.CancelledAt = &at
	}
	if o.Cancellation != nil {
		c := *o.Cancellation
		out.Cancellation = &c
	}
	return out
}
