// Script xuất dữ liệu mẫu crm_customers / crm_orders và payload insights tương ứng ra thư mục sample-data.
// Chạy: go run ./scripts/export_insights_sample
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soringifei/lapiqure-sub001/config"
	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/database"
	"github.com/soringifei/lapiqure-sub001/internal/global"
	"github.com/soringifei/lapiqure-sub001/internal/metrics"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

var collections = []string{"crm_customers", "crm_orders"}

const limitPerCollection = 20
const outputDir = "sample-data"

// convertBSONToJSON chuyển document BSON sang JSON, xử lý ObjectID và các kiểu đặc biệt
func convertBSONToJSON(doc bson.M) (map[string]interface{}, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func writeJSON(name string, v interface{}) error {
	f, err := os.Create(filepath.Join(outputDir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exportCollection(ctx context.Context, coll *mongo.Collection) (int, error) {
	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limitPerCollection)))
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return 0, err
	}
	jsonDocs := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		j, err := convertBSONToJSON(d)
		if err != nil {
			continue
		}
		jsonDocs = append(jsonDocs, j)
	}
	return len(jsonDocs), writeJSON(coll.Name()+".json", jsonDocs)
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Đọc cấu hình lỗi: %v", err)
	}
	client, err := database.GetInstance(cfg)
	if err != nil {
		log.Fatalf("Kết nối MongoDB lỗi: %v", err)
	}
	defer database.CloseInstance(client)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Tạo thư mục output lỗi: %v", err)
	}

	db := client.Database(cfg.MongoDB_DBName_Data)
	for _, colName := range collections {
		n, err := exportCollection(ctx, db.Collection(colName))
		if err != nil {
			log.Printf("  [SKIP] %s: %v", colName, err)
			continue
		}
		log.Printf("  [OK] %s: %d documents", colName, n)
	}

	// payload insights tính từ chính dữ liệu vừa xuất
	global.MongoDB_ServerConfig = cfg
	global.MongoDB_ColNames.CrmCustomers = collections[0]
	global.MongoDB_ColNames.CrmOrders = collections[1]
	for _, name := range collections {
		_, _ = global.RegistryCollections.Register(name, db.Collection(name))
	}
	source, err := crmvc.NewMongoInsightSource()
	if err != nil {
		log.Fatal(err)
	}
	cache := utility.NewMemoryCache(0)
	defer cache.Close()
	svc := crmvc.NewCrmInsightsService(source, cache, metrics.New(), crmvc.DefaultInsightsOptions())

	payload, _ := svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	if payload.Degraded {
		log.Printf("  [WARN] insights degraded, xem log để biết nguyên nhân")
	}
	if err := writeJSON("insights.json", payload); err != nil {
		log.Fatalf("Ghi insights.json lỗi: %v", err)
	}
	log.Printf("Hoàn thành. Output: %s", outputDir)
}
