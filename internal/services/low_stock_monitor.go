package services

import (
	"context"
	"time"

	"cafe/internal/events"
	"cafe/internal/models"
	"cafe/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// LowStockAlert is the payload of a low-stock event.
type LowStockAlert struct {
	Threshold int              `json:"threshold"`
	Products  []models.Product `json:"products"`
}

// LowStockMonitor periodically tells the admin console which products are
// running out.
type LowStockMonitor struct {
	products  repositories.ProductRepository
	publisher events.Publisher
	threshold int
	interval  time.Duration
}

// NewLowStockMonitor creates a new LowStockMonitor.
func NewLowStockMonitor(products repositories.ProductRepository, publisher events.Publisher, threshold int, interval time.Duration) *LowStockMonitor {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &LowStockMonitor{
		products:  products,
		publisher: publisher,
		threshold: threshold,
		interval:  interval,
	}
}

// Sweep checks stock once and publishes an alert if anything is low.
func (m *LowStockMonitor) Sweep(ctx context.Context) ([]models.Product, error) {
	low, err := m.products.LowStock(ctx, m.threshold)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return nil, nil
	}

	names := make([]string, len(low))
	for i, p := range low {
		names[i] = p.Name
	}
	log.WithFields(log.Fields{
		"threshold": m.threshold,
		"products":  names,
	}).Warn("Low stock")

	publish(ctx, m.publisher, events.LowStock, "", LowStockAlert{Threshold: m.threshold, Products: low})
	return low, nil
}

// Run sweeps every interval until ctx is done.
func (m *LowStockMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.WithField("interval", m.interval).Info("Low stock monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Low stock monitor stopped")
			return nil
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				log.WithError(err).Error("Low stock sweep failed")
			}
		}
	}
}
