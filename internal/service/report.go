package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"
)

const statsCacheKey = "admin:stats"

// ReportService produces sales reporting, CSV export, and the cached
// admin dashboard stats
type ReportService struct {
	store     *store.Store
	redis     *redisclient.Client
	threshold int
	statsTTL  time.Duration
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *store.Store, redis *redisclient.Client, lowStockThreshold int, statsTTL time.Duration) *ReportService {
	return &ReportService{
		store:     store,
		redis:     redis,
		threshold: lowStockThreshold,
		statsTTL:  statsTTL,
		logger:    util.GetLogger(),
	}
}

// SalesReport aggregates revenue per day plus top products for a range
type SalesReport struct {
	From        time.Time               `json:"from"`
	To          time.Time               `json:"to"`
	Days        []models.SalesReportRow `json:"days"`
	TopProducts []models.TopProductRow  `json:"top_products"`
}

// Sales builds the sales report for [from, to)
func (s *ReportService) Sales(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("report range is empty")
	}

	days, err := s.store.GetSalesByDay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	top, err := s.store.GetTopProducts(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}

	return &SalesReport{From: from, To: to, Days: days, TopProducts: top}, nil
}

// WriteSalesCSV streams the sales report as a CSV attachment body
func (s *ReportService) WriteSalesCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	report, err := s.Sales(ctx, from, to)
	if err != nil {
		return err
	}
	return WriteSalesCSV(w, report)
}

// WriteSalesCSV renders a sales report as CSV
func WriteSalesCSV(w io.Writer, report *SalesReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"day", "orders", "revenue_cents"}); err != nil {
		return err
	}
	for _, row := range report.Days {
		record := []string{
			row.Day.Format("2006-01-02"),
			strconv.Itoa(row.Orders),
			strconv.FormatInt(row.Revenue, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	if err := cw.Write([]string{}); err != nil {
		return err
	}
	if err := cw.Write([]string{"product_id", "name", "units", "revenue_cents"}); err != nil {
		return err
	}
	for _, row := range report.TopProducts {
		record := []string{
			strconv.FormatInt(row.ProductID, 10),
			row.Name,
			strconv.Itoa(row.Units),
			strconv.FormatInt(row.Revenue, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Stats returns the dashboard summary, cached in Redis for the
// configured TTL
func (s *ReportService) Stats(ctx context.Context) (*models.StoreStats, error) {
	if s.redis != nil {
		var cached models.StoreStats
		hit, err := s.redis.GetJSON(ctx, statsCacheKey, &cached)
		if err != nil {
			s.logger.Warn("Stats cache read failed", zap.Error(err))
		} else if hit {
			util.StatsCacheHits.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		util.StatsCacheHits.WithLabelValues("miss").Inc()
	}

	orders, revenue, err := s.store.CountOrders(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.store.CountLowStockProducts(ctx, s.threshold)
	if err != nil {
		return nil, err
	}

	stats := &models.StoreStats{
		TotalOrders:   orders,
		TotalRevenue:  revenue,
		TotalUsers:    users,
		TotalProducts: products,
		LowStockCount: lowStock,
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
			s.logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
