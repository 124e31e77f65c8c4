package crmvc

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

// FirestoreInsightSource đọc khách/đơn từ Firestore của storefront (collection customers / orders).
type FirestoreInsightSource struct {
	client        *firestore.Client
	customersPath string
	ordersPath    string
}

// NewFirestoreInsightSource client lấy từ firebase app.Firestore(ctx); caller đóng client khi tắt server
func NewFirestoreInsightSource(client *firestore.Client, customersPath, ordersPath string) *FirestoreInsightSource {
	if customersPath == "" {
		customersPath = "customers"
	}
	if ordersPath == "" {
		ordersPath = "orders"
	}
	return &FirestoreInsightSource{client: client, customersPath: customersPath, ordersPath: ordersPath}
}

func (s *FirestoreInsightSource) Name() string { return SourceFirestore }

func (s *FirestoreInsightSource) LoadCustomers(ctx context.Context, limit int) ([]crmmodels.CrmCustomer, error) {
	q := s.client.Collection(s.customersPath).OrderBy("totalSpent", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	out := []crmmodels.CrmCustomer{}
	err := eachDocument(ctx, q, func(id string, data map[string]interface{}) {
		out = append(out, customerFromFirestore(id, data))
	})
	if err != nil {
		return nil, fmt.Errorf("đọc firestore %s: %w", s.customersPath, err)
	}
	return out, nil
}

func (s *FirestoreInsightSource) LoadOrders(ctx context.Context, limit int) ([]crmmodels.CrmOrder, error) {
	q := s.client.Collection(s.ordersPath).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	out := []crmmodels.CrmOrder{}
	err := eachDocument(ctx, q, func(id string, data map[string]interface{}) {
		out = append(out, orderFromFirestore(id, data))
	})
	if err != nil {
		return nil, fmt.Errorf("đọc firestore %s: %w", s.ordersPath, err)
	}
	return out, nil
}

func eachDocument(ctx context.Context, q firestore.Query, fn func(id string, data map[string]interface{})) error {
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(doc.Ref.ID, doc.Data())
	}
}

// customerFromFirestore: customerId lấy từ field, không có thì dùng document ID
func customerFromFirestore(id string, data map[string]interface{}) crmmodels.CrmCustomer {
	c := crmmodels.CrmCustomer{
		CustomerId:     utility.FirstString(data, "customerId", "id"),
		Name:           utility.FirstString(data, "name", "displayName"),
		Email:          utility.FirstString(data, "email"),
		Phone:          utility.FirstString(data, "phone"),
		Tier:           utility.FirstString(data, "tier"),
		TotalSpent:     utility.ToFloat64(data["totalSpent"]),
		LastPurchaseAt: utility.ToUnixMilli(data["lastPurchaseDate"]),
		CreatedAt:      utility.ToUnixMilli(data["createdAt"]),
		UpdatedAt:      utility.ToUnixMilli(data["updatedAt"]),
	}
	if c.CustomerId == "" {
		c.CustomerId = id
	}
	if c.LastPurchaseAt == 0 {
		c.LastPurchaseAt = utility.ToUnixMilli(data["lastPurchaseAt"])
	}
	if tags, ok := data["tags"].([]interface{}); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok && s != "" {
				c.Tags = append(c.Tags, s)
			}
		}
	}
	return c
}

func orderFromFirestore(id string, data map[string]interface{}) crmmodels.CrmOrder {
	o := crmmodels.CrmOrder{
		OrderId:       utility.FirstString(data, "orderId"),
		CustomerId:    utility.FirstString(data, "customerId", "userId"),
		TotalAmount:   utility.ToFloat64(data["total"]),
		Status:        utility.FirstString(data, "status"),
		PaymentStatus: utility.FirstString(data, "paymentStatus"),
		CreatedAt:     utility.ToUnixMilli(data["createdAt"]),
		UpdatedAt:     utility.ToUnixMilli(data["updatedAt"]),
	}
	if o.OrderId == "" {
		o.OrderId = id
	}
	if v, ok := data["totalAmount"]; ok {
		o.TotalAmount = utility.ToFloat64(v)
	}
	return o
}
