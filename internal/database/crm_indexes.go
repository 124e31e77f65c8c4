// Package database - Index bổ sung cho CRM không thể khai báo qua model tags (partial, nhiều field với thứ tự khác nhau).
package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CrmAdditionalIndexes trả về index bổ sung theo tên collection
func CrmAdditionalIndexes(customersCol, ordersCol string) map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		// Danh sách tính điểm: top khách theo totalSpent, bỏ khách đã xoá mềm
		customersCol: {
			{
				Keys: bson.D{{Key: "totalSpent", Value: -1}, {Key: "customerId", Value: 1}},
				Options: options.Index().SetName("crm_customer_spent_active").
					SetPartialFilterExpression(bson.M{"deletedAt": bson.M{"$exists": false}}),
			},
		},
		// Lọc đơn hợp lệ theo trạng thái rồi lấy mới nhất
		ordersCol: {
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "paymentStatus", Value: 1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("crm_order_status_created"),
			},
		},
	}
}

// CreateCrmAdditionalIndexes tạo các index bổ sung. Gọi sau CreateIndexes cho từng collection CRM.
func CreateCrmAdditionalIndexes(ctx context.Context, db *mongo.Database, customersCol, ordersCol string) error {
	for colName, models := range CrmAdditionalIndexes(customersCol, ordersCol) {
		col := db.Collection(colName)
		for _, m := range models {
			if _, err := col.Indexes().CreateOne(ctx, m); err != nil && !isIndexExistsError(err) {
				return err
			}
		}
	}
	return nil
}
