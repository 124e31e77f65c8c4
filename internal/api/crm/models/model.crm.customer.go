// Package models - CrmCustomer / CrmOrder thuộc domain CRM (crm_customers, crm_orders).
// Là dữ liệu đầu vào cho phần tính điểm khách hàng; các field ngoài tổng chi tiêu và ngày mua chỉ dùng để hiển thị.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
)

// CrmCustomer lưu khách hàng (crm_customers).
type CrmCustomer struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	CustomerId string   `json:"customerId" bson:"customerId" index:"unique"` // ID ổn định từ storefront
	Name       string   `json:"name,omitempty" bson:"name,omitempty" index:"text"`
	Email      string   `json:"email,omitempty" bson:"email,omitempty" index:"single:1"`
	Phone      string   `json:"phone,omitempty" bson:"phone,omitempty"`
	Tags       []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Tier       string   `json:"tier,omitempty" bson:"tier,omitempty"` // nhãn hạng do storefront gán, chỉ mang theo

	TotalSpent     float64 `json:"totalSpent" bson:"totalSpent" index:"single:1,order:-1"` // tổng giá trị đơn đã hoàn tất
	LastPurchaseAt int64   `json:"lastPurchaseAt,omitempty" bson:"lastPurchaseAt,omitempty" index:"single:1,order:-1"`

	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
	DeletedAt *int64 `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
}

// ToScoringInput chuyển sang đầu vào của scoring
func (c *CrmCustomer) ToScoringInput() scoring.Customer {
	return scoring.Customer{
		ID:             c.CustomerId,
		TotalSpent:     c.TotalSpent,
		LastPurchaseAt: c.LastPurchaseAt,
	}
}

// DisplayLabel tên hiển thị: name, không có thì email, cuối cùng là customerId
func (c *CrmCustomer) DisplayLabel() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return c.CustomerId
	}
}
