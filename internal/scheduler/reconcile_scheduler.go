package scheduler

import (
	"math"
	"time"

	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/internal/app/service"
	"github.com/martify/martify-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReconcileScheduler runs a nightly consistency sweep. It only reports,
// fixing bad rows is a manual decision.
type ReconcileScheduler struct {
	cron        *cron.Cron
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

func NewReconcileScheduler(productRepo repository.ProductRepository, orderRepo repository.OrderRepository) *ReconcileScheduler {
	return &ReconcileScheduler{
		cron:        cron.New(),
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// Start schedules the sweep for 02:30 every day.
func (s *ReconcileScheduler) Start() error {
	_, err := s.cron.AddFunc("30 2 * * *", s.Run)
	if err != nil {
		logger.Error("Failed to add cron job for reconciliation", err)
		return err
	}

	s.cron.Start()
	logger.Info("Reconciliation scheduler started (daily at 2:30 AM)", nil)

	return nil
}

// Run executes one sweep immediately. Exposed so the job can be triggered
// manually in ops scripts.
func (s *ReconcileScheduler) Run() {
	logger.Info("Starting consistency sweep", nil)

	s.checkStock()
	s.checkOrderTotals()

	logger.Info("Consistency sweep finished", nil)
}

func (s *ReconcileScheduler) checkStock() {
	products, err := s.productRepo.FindNegativeStock()
	if err != nil {
		logger.Error("Failed to scan for negative stock", err)
		return
	}

	for _, p := range products {
		logger.Warn("Product has negative stock", map[string]interface{}{
			"product_id": p.ID,
			"name":       p.Name,
			"stock":      p.StockQuantity,
		})
	}
}

func (s *ReconcileScheduler) checkOrderTotals() {
	orders, err := s.orderRepo.FindCreatedSince(time.Now().AddDate(0, 0, -7))
	if err != nil {
		logger.Error("Failed to load recent orders for reconciliation", err)
		return
	}

	for _, order := range orders {
		totals := service.ComputeOrderTotals(order.OrderItems)
		if math.Abs(totals.Total-order.TotalAmount) > 0.01 {
			logger.Warn("Order total does not match its lines", map[string]interface{}{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
				"stored":       order.TotalAmount,
				"computed":     totals.Total,
			})
		}
	}
}

// Stop halts the scheduler.
func (s *ReconcileScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Reconciliation scheduler stopped", nil)
}
