package service

import (
	"context"
	"time"

	"tslaglobal/backend/pkg/logger"
)

// OrderFiller periodically matches open orders against market prices
type OrderFiller struct {
	orders   *OrderService
	interval time.Duration
	log      *logger.Logger
}

func NewOrderFiller(orders *OrderService, interval time.Duration) *OrderFiller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OrderFiller{
		orders:   orders,
		interval: interval,
		log:      logger.GetLogger().WithComponent("order-filler"),
	}
}

// Run blocks until ctx is cancelled
func (f *OrderFiller) Run(ctx context.Context) error {
	f.log.Infof("Order filler started (interval=%s)", f.interval)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.log.Info("Order filler stopped")
			return nil
		case <-ticker.C:
			n, err := f.orders.FillOpenOrders(ctx)
			if err != nil && ctx.Err() == nil {
				f.log.Errorf("Order fill pass failed: %v", err)
			}
			if n > 0 {
				f.log.Debugf("Filled %d orders", n)
			}
		}
	}
}
