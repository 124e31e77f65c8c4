package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

// parseOrder: "order:-1" -> -1 (giảm dần), mặc định 1
func parseOrder(tag string) int {
	if strings.Contains(tag, "order:-1") {
		return -1
	}
	return 1
}

// parseIndexTag tách tag index thành các cấu hình, phân cách bởi ';'.
// Ví dụ: `index:"unique"`, `index:"single:1,order:-1"`, `index:"compound:crm_order_customer_created"`
func parseIndexTag(tag string) []map[string]string {
	var result []map[string]string
	for _, part := range strings.Split(tag, ";") {
		entry := map[string]string{}
		for _, sub := range strings.Split(part, ",") {
			kv := strings.SplitN(strings.TrimSpace(sub), ":", 2)
			if kv[0] == "" {
				continue
			}
			if len(kv) == 2 {
				entry[kv[0]] = kv[1]
			} else {
				entry[kv[0]] = ""
			}
		}
		result = append(result, entry)
	}
	return result
}

// IndexModelsFromTags đọc tag `index` của struct model và trả về các IndexModel cần tạo.
// Compound index gom theo tên group, thứ tự field theo thứ tự khai báo; tên group chứa "_unique" thì index unique.
func IndexModelsFromTags(model interface{}) ([]mongo.IndexModel, error) {
	modelType := reflect.TypeOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	var models []mongo.IndexModel
	compoundKeys := map[string]bson.D{}
	compoundSparse := map[string]bool{}
	var compoundOrder []string

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		bsonField := strings.Split(field.Tag.Get("bson"), ",")[0]
		if bsonField == "" || bsonField == "-" {
			continue
		}

		for _, cfg := range parseIndexTag(tag) {
			_, sparse := cfg["sparse"]

			if _, ok := cfg["text"]; ok {
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: "text"}},
					Options: options.Index().SetName(bsonField + "_text"),
				})
			}
			if _, ok := cfg["single"]; ok {
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: parseOrder(tag)}},
					Options: options.Index().SetName(bsonField + "_single"),
				})
			}
			if _, ok := cfg["unique"]; ok {
				opts := options.Index().SetName(bsonField + "_unique").SetUnique(true)
				if sparse {
					opts.SetSparse(true)
				}
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: 1}},
					Options: opts,
				})
			}
			if ttlValue, ok := cfg["ttl"]; ok {
				ttl, err := strconv.Atoi(ttlValue)
				if err != nil {
					return nil, fmt.Errorf("TTL không hợp lệ ở field %s: %w", field.Name, err)
				}
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: 1}},
					Options: options.Index().SetName(bsonField + "_ttl").SetExpireAfterSeconds(int32(ttl)),
				})
			}
			if group, ok := cfg["compound"]; ok && group != "" {
				if _, seen := compoundKeys[group]; !seen {
					compoundOrder = append(compoundOrder, group)
				}
				compoundKeys[group] = append(compoundKeys[group], bson.E{Key: bsonField, Value: parseOrder(tag)})
				if sparse {
					compoundSparse[group] = true
				}
			}
		}
	}

	sort.Strings(compoundOrder)
	for _, group := range compoundOrder {
		opts := options.Index().SetName(group)
		if strings.Contains(group, "_unique") {
			opts.SetUnique(true)
		}
		if compoundSparse[group] {
			opts.SetSparse(true)
		}
		models = append(models, mongo.IndexModel{Keys: compoundKeys[group], Options: opts})
	}
	return models, nil
}

// CreateIndexes tạo các index khai báo trong tag của model cho collection.
// Index cùng tên đã tồn tại được giữ nguyên.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	models, err := IndexModelsFromTags(model)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}

	log := logger.GetAppLogger().WithField("collection", collection.Name())
	for _, m := range models {
		if _, err := collection.Indexes().CreateOne(ctx, m); err != nil {
			if isIndexExistsError(err) {
				continue
			}
			return fmt.Errorf("không thể tạo index %s: %w", *m.Options.Name, err)
		}
		log.WithField("index", *m.Options.Name).Debug("Index ensured")
	}
	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "IndexOptionsConflict") || strings.Contains(s, "IndexKeySpecsConflict")
}
