// package basesvc cung cấp các service cơ bản cho việc tương tác với MongoDB
package basesvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soringifei/lapiqure-sub001/internal/common"
)

// BaseServiceMongo các thao tác đọc/ghi cơ bản dùng chung cho mọi collection
type BaseServiceMongo[Model any] interface {
	Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]Model, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Upsert(ctx context.Context, filter interface{}, data Model, onInsert bson.M) error
}

// BaseServiceMongoImpl triển khai BaseServiceMongo trên 1 collection
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

var _ BaseServiceMongo[struct{}] = (*BaseServiceMongoImpl[struct{}])(nil)

// NewBaseServiceMongo tạo mới một BaseServiceMongoImpl
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{collection: collection}
}

func normalizeFilter(filter interface{}) interface{} {
	if filter == nil {
		return bson.D{}
	}
	if m, ok := filter.(map[string]interface{}); ok && len(m) == 0 {
		return bson.D{}
	}
	return filter
}

// Find tìm tất cả bản ghi theo điều kiện lọc, luôn trả về slice (không nil)
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	if opts == nil {
		opts = options.Find()
	}

	cursor, err := s.collection.Find(ctx, normalizeFilter(filter), opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// CountDocuments đếm số lượng document
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, normalizeFilter(filter))
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// Upsert ghi đè các field của data lên document khớp filter, chưa có thì tạo mới.
// Field trong onInsert chỉ được ghi khi tạo mới ($setOnInsert).
func (s *BaseServiceMongoImpl[T]) Upsert(ctx context.Context, filter interface{}, data T, onInsert bson.M) error {
	if filter == nil {
		return common.ErrRequiredField
	}
	update, err := buildUpsertUpdate(data, onInsert)
	if err != nil {
		return err
	}
	_, err = s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return common.ConvertMongoError(err)
}

// buildUpsertUpdate dựng {$set, $setOnInsert}. _id không bao giờ nằm trong $set.
func buildUpsertUpdate(data interface{}, onInsert bson.M) (bson.M, error) {
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat, "Không encode được document sang BSON", common.StatusBadRequest, err)
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat, "Không encode được document sang BSON", common.StatusBadRequest, err)
	}
	delete(set, "_id")
	for k := range onInsert {
		delete(set, k)
	}

	update := bson.M{"$set": set}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}
	return update, nil
}
