package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kasirlokal/backend/internal/cache"
	"kasirlokal/backend/internal/cart"
	"kasirlokal/backend/internal/catalog"
	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/events"
	"kasirlokal/backend/internal/ledger"
	"kasirlokal/backend/internal/reporting"
	"kasirlokal/backend/internal/store"
	"kasirlokal/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type StockPolicy string

const (
	// AllowOversell lets a sale drive stock below zero.
	AllowOversell StockPolicy = "allow"
	// RejectOversell fails a commit when any line exceeds the product's stock.
	RejectOversell StockPolicy = "reject"
)

type Options struct {
	StockPolicy       StockPolicy
	UniqueCodes       bool
	LowStockThreshold int
	TopSellingLimit   int
	ReportCacheTTL    time.Duration
	DefaultSettings   *domain.Settings
	Topics            events.Topics
	ProducerName      string
	Now               func() time.Time
	NewID             func() string
}

// Service owns the in-memory catalog, cart, ledger and settings, and mirrors
// every accepted change to the slot store. A single mutex covers all four so
// that a commit is never interleaved with another mutation.
type Service struct {
	mu        sync.Mutex
	slots     store.SlotStore
	cache     cache.ReportCache
	publisher events.Publisher
	logger    *zap.Logger
	opts      Options

	hydrated bool
	// version counts catalog and ledger changes; report cache keys carry it.
	version  uint64
	catalog  *catalog.Catalog
	cart     *cart.Cart
	ledger   *ledger.Ledger
	settings domain.Settings
}

func New(slots store.SlotStore, reportCache cache.ReportCache, publisher events.Publisher, logger *zap.Logger, opts Options) *Service {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StockPolicy == "" {
		opts.StockPolicy = AllowOversell
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = reporting.DefaultLowStockThreshold
	}
	if opts.TopSellingLimit <= 0 {
		opts.TopSellingLimit = reporting.DefaultTopSellingLimit
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 30 * time.Second
	}
	if opts.DefaultSettings == nil {
		defaults := domain.DefaultSettings()
		opts.DefaultSettings = &defaults
	}
	if opts.Topics == (events.Topics{}) {
		opts.Topics = events.TopicsFor("")
	}
	if opts.ProducerName == "" {
		opts.ProducerName = "kasirlokal"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = xid.NewGenerator(opts.Now).Next
	}

	return &Service{
		slots:     slots,
		cache:     reportCache,
		publisher: publisher,
		logger:    logger.Named("service"),
		opts:      opts,
		settings:  *opts.DefaultSettings,
	}
}

// Hydrate loads all four slots. Absent slots keep their defaults. Business
// operations refuse to run until Hydrate has succeeded.
func (s *Service) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := []domain.Product{}
	transactions := []domain.Transaction{}
	lines := []domain.CartLine{}
	settings := *s.opts.DefaultSettings

	targets := []struct {
		key  string
		dest any
	}{
		{store.SlotProducts, &products},
		{store.SlotTransactions, &transactions},
		{store.SlotCart, &lines},
		{store.SlotSettings, &settings},
	}
	for _, target := range targets {
		found, err := s.slots.Load(ctx, target.key, target.dest)
		if err != nil {
			return fmt.Errorf("hydrate %s: %w", target.key, err)
		}
		s.logger.Debug("slot loaded", zap.String("slot", target.key), zap.Bool("found", found))
	}

	s.catalog = catalog.New(products, catalog.Options{
		UniqueCodes: s.opts.UniqueCodes,
		Now:         s.opts.Now,
		NewID:       s.opts.NewID,
	})
	s.cart = cart.New(lines, s.opts.Now)
	s.ledger = ledger.New(transactions)
	s.settings = settings
	s.hydrated = true
	s.version++
	// reports cached by an earlier process may describe other data
	s.invalidateReports(ctx)

	s.logger.Info("state hydrated",
		zap.Int("products", s.catalog.Len()),
		zap.Int("transactions", s.ledger.Len()),
		zap.Int("cart_lines", s.cart.Len()),
	)
	return nil
}

func (s *Service) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

func (s *Service) LowStockThreshold() int {
	return s.opts.LowStockThreshold
}

func (s *Service) TopSellingLimit() int {
	return s.opts.TopSellingLimit
}

// ready must be called with s.mu held.
func (s *Service) ready() error {
	if !s.hydrated {
		return store.ErrNotHydrated
	}
	return nil
}

func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Settings{}, err
	}
	return s.settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, update domain.SettingsUpdate) (domain.Settings, error) {
	if update.TaxRate != nil && (*update.TaxRate < 0 || *update.TaxRate > 100) {
		return domain.Settings{}, fmt.Errorf("%w: tax rate must be between 0 and 100", store.ErrInvalidInput)
	}
	if update.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*update.Currency))
		if currency == "" {
			return domain.Settings{}, fmt.Errorf("%w: currency is required", store.ErrInvalidInput)
		}
		update.Currency = &currency
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Settings{}, err
	}

	next := s.settings.Apply(update)
	if err := s.slots.Save(ctx, store.SlotSettings, next); err != nil {
		return domain.Settings{}, err
	}
	s.settings = next
	s.logger.Info("settings updated", actorField(ctx), zap.Float64("tax_rate", next.TaxRate), zap.String("currency", next.Currency))
	return next, nil
}

// Export returns the full-state interchange document.
func (s *Service) Export(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{
		Products:     s.catalog.Products(),
		Transactions: s.ledger.Transactions(),
		Settings:     s.settings,
		ExportedAt:   s.opts.Now().UTC(),
	}, nil
}

func ExportFilename(at time.Time) string {
	return fmt.Sprintf("pos-data-export-%s.json", at.Format("2006-01-02"))
}

// ClearAll wipes products, cart and transactions and restores default
// settings, in one write.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	settings := *s.opts.DefaultSettings
	err := s.slots.SaveMany(ctx, map[string]any{
		store.SlotProducts:     []domain.Product{},
		store.SlotTransactions: []domain.Transaction{},
		store.SlotCart:         []domain.CartLine{},
		store.SlotSettings:     settings,
	})
	if err != nil {
		return err
	}

	s.catalog = catalog.New(nil, catalog.Options{UniqueCodes: s.opts.UniqueCodes, Now: s.opts.Now, NewID: s.opts.NewID})
	s.cart = cart.New(nil, s.opts.Now)
	s.ledger = ledger.New(nil)
	s.settings = settings
	s.version++
	s.invalidateReports(ctx)
	s.logger.Warn("all data cleared", actorField(ctx))
	return nil
}

func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func actorField(ctx context.Context) zap.Field {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return zap.String("actor", "system")
	}
	return zap.String("actor", actor.Username)
}
