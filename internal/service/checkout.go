package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/events"
	"kasirlokal/backend/internal/ledger"
	"kasirlokal/backend/internal/store"
)

// Commit turns the cart into a completed transaction. The new ledger, the
// decremented stock and the emptied cart are written in a single SaveMany; if
// that fails nothing in memory changes either.
func (s *Service) Commit(ctx context.Context, req domain.CommitRequest) (domain.Transaction, error) {
	tx, crossedLow, err := s.commit(ctx, req)
	if err != nil {
		return domain.Transaction{}, err
	}

	s.invalidateReports(ctx)
	s.publish(ctx, s.opts.Topics.TransactionCommitted, tx.ID, events.EventTransactionCommitted, events.TransactionCommitted(tx))
	for _, p := range crossedLow {
		s.publish(ctx, s.opts.Topics.StockLow, p.ID, events.EventStockLow, events.StockLow(p, s.opts.LowStockThreshold))
	}
	return tx, nil
}

func (s *Service) commit(ctx context.Context, req domain.CommitRequest) (domain.Transaction, []domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Transaction{}, nil, err
	}

	tx, err := ledger.Build(s.cart.Lines(), s.settings, req, s.opts.NewID(), s.opts.Now())
	if err != nil {
		return domain.Transaction{}, nil, err
	}

	if s.opts.StockPolicy == RejectOversell {
		for _, line := range tx.Items {
			product, ok := s.catalog.FindByID(line.ID)
			if ok && product.Stock < line.Quantity {
				return domain.Transaction{}, nil, fmt.Errorf("%w: %s has %d, requested %d",
					store.ErrInsufficientStock, product.Name, product.Stock, line.Quantity)
			}
		}
	}

	threshold := s.opts.LowStockThreshold
	nextCatalog := s.catalog.Clone()
	crossedLow := make([]domain.Product, 0)
	for _, line := range tx.Items {
		before, _ := s.catalog.FindByID(line.ID)
		after, ok := nextCatalog.ApplySale(line.ID, line.Quantity)
		if !ok {
			// Removed from the catalog after it was put in the cart.
			s.logger.Warn("sold product no longer in catalog", zap.String("product_id", line.ID), zap.String("transaction_id", tx.ID))
			continue
		}
		if before.Stock > threshold && after.Stock <= threshold {
			crossedLow = append(crossedLow, after)
		}
	}

	nextLedger := s.ledger.Clone()
	nextLedger.Prepend(tx)
	nextCart := s.cart.Clone()
	nextCart.Clear()

	err = s.slots.SaveMany(ctx, map[string]any{
		store.SlotTransactions: nextLedger.Transactions(),
		store.SlotProducts:     nextCatalog.Products(),
		store.SlotCart:         nextCart.Lines(),
	})
	if err != nil {
		s.logger.Error("transaction not persisted", zap.String("transaction_id", tx.ID), zap.Error(err))
		return domain.Transaction{}, nil, err
	}

	s.ledger = nextLedger
	s.catalog = nextCatalog
	s.cart = nextCart
	s.version++

	s.logger.Info("transaction committed",
		actorField(ctx),
		zap.String("transaction_id", tx.ID),
		zap.Int64("total", tx.Total),
		zap.String("payment_method", tx.PaymentMethod),
		zap.Int("items", len(tx.Items)),
	)
	return tx, crossedLow, nil
}

func (s *Service) publish(ctx context.Context, topic string, key string, eventType string, payload any) {
	env, err := events.NewEnvelope(eventType, s.opts.ProducerName, key, payload, s.opts.Now())
	if err != nil {
		s.logger.Warn("event not built", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, topic, key, env); err != nil {
		s.logger.Warn("event not published", zap.String("event_type", eventType), zap.String("topic", topic), zap.Error(err))
	}
}

func (s *Service) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.FilterTransactions(ctx, "", "")
}

// FilterTransactions matches an id substring and, when day is given as
// YYYY-MM-DD, the calendar day in the service clock's location.
func (s *Service) FilterTransactions(ctx context.Context, query string, day string) ([]domain.Transaction, error) {
	var dayStart time.Time
	if day != "" {
		parsed, err := parseDay(day, s.opts.Now().Location())
		if err != nil {
			return nil, err
		}
		dayStart = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.ledger.Filter(query, dayStart), nil
}

func (s *Service) TransactionsByDateRange(ctx context.Context, start, end string) ([]domain.Transaction, error) {
	loc := s.opts.Now().Location()
	from, err := parseDay(start, loc)
	if err != nil {
		return nil, err
	}
	to, err := parseDay(end, loc)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date is before start date", store.ErrInvalidInput)
	}
	// end names a whole day
	to = to.AddDate(0, 0, 1).Add(-1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.ledger.ByDateRange(from, to), nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Transaction{}, err
	}
	tx, ok := s.ledger.FindByID(id)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	return tx, nil
}

// Receipt pairs a transaction with the current store settings.
func (s *Service) Receipt(ctx context.Context, id string) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Receipt{}, err
	}
	tx, ok := s.ledger.FindByID(id)
	if !ok {
		return domain.Receipt{}, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	return domain.Receipt{Transaction: tx, Settings: s.settings}, nil
}
