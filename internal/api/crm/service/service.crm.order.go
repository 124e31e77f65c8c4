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

// CrmOrderService xử lý đọc/ghi crm_orders.
type CrmOrderService struct {
	*basesvc.BaseServiceMongoImpl[crmmodels.CrmOrder]
}

// NewCrmOrderService tạo CrmOrderService mới.
func NewCrmOrderService() (*CrmOrderService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CrmOrders)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.CrmOrders, common.ErrNotFound)
	}
	return &CrmOrderService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[crmmodels.CrmOrder](coll),
	}, nil
}

// ListForScoring lấy tối đa limit đơn mới nhất. Mọi đơn trả về đều được tính vào frequency.
func (s *CrmOrderService) ListForScoring(ctx context.Context, limit int) ([]crmmodels.CrmOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.Find(ctx, bson.M{}, opts)
}

// UpsertOrder ghi đè đơn theo orderId, createdAt chỉ ghi khi tạo mới
func (s *CrmOrderService) UpsertOrder(ctx context.Context, o crmmodels.CrmOrder) error {
	o.OrderId = strings.TrimSpace(o.OrderId)
	if o.OrderId == "" || strings.TrimSpace(o.CustomerId) == "" {
		return common.ErrRequiredField
	}
	now := time.Now().UnixMilli()
	if o.CreatedAt == 0 {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	return s.Upsert(ctx, bson.M{"orderId": o.OrderId}, o, bson.M{"createdAt": o.CreatedAt})
}
