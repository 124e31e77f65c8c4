// Script tạo dữ liệu mẫu crm_customers / crm_orders để thử API insights.
// Chạy: go run ./scripts/seed_insights_sample -customers 50
// Dùng MONGODB_CONNECTION_URI và MONGODB_DBNAME_DATA từ config/env/<GO_ENV>.env
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/soringifei/lapiqure-sub001/config"
	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/database"
	"github.com/soringifei/lapiqure-sub001/internal/global"
)

const dayMs = int64(24 * time.Hour / time.Millisecond)

func main() {
	customers := flag.Int("customers", 30, "số khách hàng cần tạo")
	seed := flag.Int64("seed", 42, "seed cho dữ liệu ngẫu nhiên (cùng seed = cùng dữ liệu)")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Đọc cấu hình lỗi: %v", err)
	}
	client, err := database.GetInstance(cfg)
	if err != nil {
		log.Fatalf("Kết nối MongoDB lỗi: %v", err)
	}
	defer database.CloseInstance(client)

	global.MongoDB_ServerConfig = cfg
	global.MongoDB_ColNames.CrmCustomers = "crm_customers"
	global.MongoDB_ColNames.CrmOrders = "crm_orders"
	db := client.Database(cfg.MongoDB_DBName_Data)
	for _, name := range []string{global.MongoDB_ColNames.CrmCustomers, global.MongoDB_ColNames.CrmOrders} {
		if _, err := global.RegistryCollections.Register(name, db.Collection(name)); err != nil {
			log.Fatalf("Đăng ký collection %s lỗi: %v", name, err)
		}
	}

	customerSvc, err := crmvc.NewCrmCustomerService()
	if err != nil {
		log.Fatal(err)
	}
	orderSvc, err := crmvc.NewCrmOrderService()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().UnixMilli()
	orderCount := 0
	for i := 1; i <= *customers; i++ {
		customerId := fmt.Sprintf("sample-%03d", i)
		nOrders := rng.Intn(8) // 0 = khách chưa mua (prospect)
		var spent float64
		var lastPurchase int64
		for j := 0; j < nOrders; j++ {
			amount := float64(50 + rng.Intn(1500))
			createdAt := now - int64(rng.Intn(365))*dayMs
			if createdAt > lastPurchase {
				lastPurchase = createdAt
			}
			spent += amount
			err := orderSvc.UpsertOrder(ctx, crmmodels.CrmOrder{
				OrderId:       fmt.Sprintf("%s-o%02d", customerId, j+1),
				CustomerId:    customerId,
				TotalAmount:   amount,
				Status:        "completed",
				PaymentStatus: "paid",
				CreatedAt:     createdAt,
			})
			if err != nil {
				log.Fatalf("Ghi đơn hàng lỗi: %v", err)
			}
			orderCount++
		}

		c := crmmodels.CrmCustomer{
			CustomerId:     customerId,
			Name:           fmt.Sprintf("Khách mẫu %d", i),
			Email:          fmt.Sprintf("%s@example.com", customerId),
			TotalSpent:     spent,
			LastPurchaseAt: lastPurchase,
		}
		if i%5 == 0 {
			c.Name = "" // nhãn hiển thị sẽ lấy email
		}
		if err := customerSvc.UpsertCustomer(ctx, c); err != nil {
			log.Fatalf("Ghi khách hàng lỗi: %v", err)
		}
	}

	totalCustomers, err := customerSvc.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Đếm khách hàng lỗi: %v", err)
	}
	totalOrders, err := orderSvc.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Đếm đơn hàng lỗi: %v", err)
	}
	log.Printf("Hoàn thành: ghi %d khách hàng, %d đơn hàng. %s hiện có %d khách, %d đơn",
		*customers, orderCount, cfg.MongoDB_DBName_Data, totalCustomers, totalOrders)
}
