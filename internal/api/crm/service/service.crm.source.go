package crmvc

import (
	"context"
	"fmt"

	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
)

// Tên nguồn dữ liệu (INSIGHTS_SOURCE)
const (
	SourceMongo     = "mongo"
	SourceFirestore = "firestore"
)

// InsightSource nơi đọc khách hàng + đơn hàng cho phần tính điểm.
// limit <= 0 nghĩa là không giới hạn.
type InsightSource interface {
	Name() string
	LoadCustomers(ctx context.Context, limit int) ([]crmmodels.CrmCustomer, error)
	LoadOrders(ctx context.Context, limit int) ([]crmmodels.CrmOrder, error)
}

// MongoInsightSource đọc từ crm_customers / crm_orders
type MongoInsightSource struct {
	customers *CrmCustomerService
	orders    *CrmOrderService
}

// NewMongoInsightSource tạo nguồn Mongo từ registry collections
func NewMongoInsightSource() (*MongoInsightSource, error) {
	customers, err := NewCrmCustomerService()
	if err != nil {
		return nil, err
	}
	orders, err := NewCrmOrderService()
	if err != nil {
		return nil, err
	}
	return &MongoInsightSource{customers: customers, orders: orders}, nil
}

func (s *MongoInsightSource) Name() string { return SourceMongo }

func (s *MongoInsightSource) LoadCustomers(ctx context.Context, limit int) ([]crmmodels.CrmCustomer, error) {
	items, err := s.customers.ListForScoring(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("đọc crm_customers: %w", err)
	}
	return items, nil
}

func (s *MongoInsightSource) LoadOrders(ctx context.Context, limit int) ([]crmmodels.CrmOrder, error) {
	items, err := s.orders.ListForScoring(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("đọc crm_orders: %w", err)
	}
	return items, nil
}
