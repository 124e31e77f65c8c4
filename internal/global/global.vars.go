package global

import (
	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/soringifei/lapiqure-sub001/config"
	"github.com/soringifei/lapiqure-sub001/internal/registry"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	CrmCustomers string // Khách hàng (tổng chi tiêu, lần mua gần nhất)
	CrmOrders    string // Đơn hàng
}

// Các biến toàn cục
var Validate *validator.Validate                     // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                    // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration       // Cấu hình của server
var MongoDB_ColNames = MongoDB_CollectionName{}      // Tên các collection
var FirebaseAuth *auth.Client                        // nil khi không dùng AUTH_MODE=firebase

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
