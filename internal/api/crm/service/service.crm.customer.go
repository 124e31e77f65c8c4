// Package crmvc - Service khách hàng CRM (crm_customers).
// Đọc danh sách khách cho phần tính điểm, upsert khi nhập dữ liệu.
package crmvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "github.com/soringifei/lapiqure-sub001/internal/api/base/service"
	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/global"
)

// activeCustomerFilter khớp partial index crm_customer_spent_active
var activeCustomerFilter = bson.M{"deletedAt": bson.M{"$exists": false}}

// CrmCustomerService xử lý đọc/ghi crm_customers.
type CrmCustomerService struct {
	*basesvc.BaseServiceMongoImpl[crmmodels.CrmCustomer]
}

// NewCrmCustomerService tạo CrmCustomerService mới.
func NewCrmCustomerService() (*CrmCustomerService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CrmCustomers)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.CrmCustomers, common.ErrNotFound)
	}
	return &CrmCustomerService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[crmmodels.CrmCustomer](coll),
	}, nil
}

// ListForScoring lấy tối đa limit khách đang hoạt động, chi tiêu cao trước
func (s *CrmCustomerService) ListForScoring(ctx context.Context, limit int) ([]crmmodels.CrmCustomer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "totalSpent", Value: -1}, {Key: "customerId", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.Find(ctx, activeCustomerFilter, opts)
}

// UpsertCustomer ghi đè khách theo customerId, tự điền updatedAt. createdAt chỉ ghi khi tạo mới.
func (s *CrmCustomerService) UpsertCustomer(ctx context.Context, c crmmodels.CrmCustomer) error {
	c.CustomerId = strings.TrimSpace(c.CustomerId)
	if c.CustomerId == "" {
		return common.ErrRequiredField
	}
	now := time.Now().UnixMilli()
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return s.Upsert(ctx, bson.M{"customerId": c.CustomerId}, c, bson.M{"createdAt": c.CreatedAt})
}
