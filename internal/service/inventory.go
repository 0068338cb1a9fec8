package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"
)

// InventoryService handles admin stock adjustments and the low-stock
// alert fan-out. Purchasing never touches stock; the bulk-update path
// is the only writer, and every write lands in stock_history.
type InventoryService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	threshold      int
	logger         *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store *store.Store, eventPublisher *broker.EventPublisher, lowStockThreshold int) *InventoryService {
	return &InventoryService{
		store:          store,
		eventPublisher: eventPublisher,
		threshold:      lowStockThreshold,
		logger:         util.GetLogger(),
	}
}

// BulkAdjustRequest applies one signed delta to a list of products
type BulkAdjustRequest struct {
	ProductIDs []int64 `json:"product_ids" binding:"required,min=1"`
	Delta      int     `json:"delta" binding:"required"`
	UpdatedBy  int64   `json:"-"`
}

// BulkAdjustResult reports the outcome per product
type BulkAdjustResult struct {
	Applied []models.StockHistory `json:"applied"`
	Failed  map[int64]string      `json:"failed,omitempty"`
}

// BulkAdjust applies the delta to each product atomically and appends a
// StockHistory row per applied update. After all updates it re-queries
// products at or below the threshold and publishes one batched alert.
func (s *InventoryService) BulkAdjust(ctx context.Context, req *BulkAdjustRequest) (*BulkAdjustResult, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.BulkAdjust")
	defer span.End()

	if len(req.ProductIDs) == 0 {
		return nil, fmt.Errorf("product_ids is required")
	}
	if req.Delta == 0 {
		return nil, fmt.Errorf("delta must be non-zero")
	}

	result := &BulkAdjustResult{
		Applied: make([]models.StockHistory, 0, len(req.ProductIDs)),
		Failed:  make(map[int64]string),
	}

	for _, productID := range req.ProductIDs {
		history, err := s.store.AdjustStock(ctx, productID, req.Delta, req.UpdatedBy)
		if err != nil {
			util.StockAdjustmentsTotal.WithLabelValues("rejected").Inc()
			s.logger.Warn("Stock adjustment failed",
				zap.Int64("product_id", productID),
				zap.Int("delta", req.Delta),
				zap.Error(err))
			result.Failed[productID] = err.Error()
			continue
		}
		util.StockAdjustmentsTotal.WithLabelValues("applied").Inc()
		result.Applied = append(result.Applied, *history)
	}

	if len(result.Failed) == 0 {
		result.Failed = nil
	}

	if err := s.publishLowStockAlert(ctx); err != nil {
		s.logger.Error("Failed to publish low-stock alert", zap.Error(err))
	}

	return result, nil
}

// LowStock returns products at or below the configured threshold
func (s *InventoryService) LowStock(ctx context.Context) ([]models.Product, error) {
	return s.store.GetLowStockProducts(ctx, s.threshold)
}

// History returns the audit trail for one product
func (s *InventoryService) History(ctx context.Context, productID int64, limit int) ([]models.StockHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.GetStockHistory(ctx, productID, limit)
}

func (s *InventoryService) publishLowStockAlert(ctx context.Context) error {
	products, err := s.store.GetLowStockProducts(ctx, s.threshold)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	alert := &models.LowStockAlertEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeLowStockAlert,
			Timestamp: time.Now(),
		},
		Threshold: s.threshold,
		Products:  make([]models.LowStockProduct, 0, len(products)),
	}
	for _, p := range products {
		alert.Products = append(alert.Products, models.LowStockProduct{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
		})
	}

	if err := s.eventPublisher.PublishLowStockAlert(ctx, alert); err != nil {
		return err
	}
	util.LowStockAlertsTotal.Inc()
	return nil
}
