package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soringifei/lapiqure-sub001/config"
	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	"github.com/soringifei/lapiqure-sub001/internal/database"
	"github.com/soringifei/lapiqure-sub001/internal/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	// Module CRM (tiền tố crm_)
	global.MongoDB_ColNames.CrmCustomers = "crm_customers"
	global.MongoDB_ColNames.CrmOrders = "crm_orders"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (đăng ký custom validators: no_xss, no_sql_injection, csv_oneof)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to initialize config: %v", err)
	}
	global.MongoDB_ServerConfig = cfg
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Khởi tạo các index cho các collection
	db := global.MongoDB_Session.Database(global.MongoDB_ServerConfig.MongoDB_DBName_Data)
	if err := database.CreateIndexes(ctx, db.Collection(global.MongoDB_ColNames.CrmCustomers), crmmodels.CrmCustomer{}); err != nil {
		logrus.Errorf("Failed to create indexes for %s: %v", global.MongoDB_ColNames.CrmCustomers, err)
	}
	if err := database.CreateIndexes(ctx, db.Collection(global.MongoDB_ColNames.CrmOrders), crmmodels.CrmOrder{}); err != nil {
		logrus.Errorf("Failed to create indexes for %s: %v", global.MongoDB_ColNames.CrmOrders, err)
	}
	if err := database.CreateCrmAdditionalIndexes(ctx, db, global.MongoDB_ColNames.CrmCustomers, global.MongoDB_ColNames.CrmOrders); err != nil {
		logrus.Errorf("Failed to create additional CRM indexes: %v", err)
	}
	logrus.Info("Ensured CRM indexes")
}
