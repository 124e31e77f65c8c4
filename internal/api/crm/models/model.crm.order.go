package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
)

// CrmOrder lưu đơn hàng (crm_orders).
type CrmOrder struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	OrderId       string  `json:"orderId" bson:"orderId" index:"unique"`
	CustomerId    string  `json:"customerId" bson:"customerId" index:"compound:crm_order_customer_created"`
	TotalAmount   float64 `json:"totalAmount" bson:"totalAmount"`
	Status        string  `json:"status" bson:"status"`               // pending | processing | completed | cancelled
	PaymentStatus string  `json:"paymentStatus" bson:"paymentStatus"` // unpaid | paid | refunded

	CreatedAt int64 `json:"createdAt" bson:"createdAt" index:"single:1,order:-1;compound:crm_order_customer_created,order:-1"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// ToScoringInput chuyển sang đầu vào của scoring
func (o *CrmOrder) ToScoringInput() scoring.Order {
	return scoring.Order{
		ID:          o.OrderId,
		CustomerID:  o.CustomerId,
		TotalAmount: o.TotalAmount,
	}
}
