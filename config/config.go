package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng
type Configuration struct {
	Address string `env:"ADDRESS" envDefault:"8080"` // Cổng server

	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"` // URL kết nối cơ sở dữ liệu
	MongoDB_DBName_Data   string `env:"MONGODB_DBNAME_DATA,required"`    // Database chứa crm_customers / crm_orders

	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"` // phân cách bởi dấu phẩy, * = tất cả
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"` // giây
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// Xác thực: firebase | jwt | none
	AuthMode                string `env:"AUTH_MODE" envDefault:"firebase"`
	JwtSecret               string `env:"JWT_SECRET"` // ký token cho job nội bộ (HS256)
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"` // service account JSON
	FirebaseAdminUIDs       string `env:"FIREBASE_ADMIN_UIDS"`       // các uid được xem báo cáo, phân cách bởi dấu phẩy

	// Insights
	InsightsSource          string `env:"INSIGHTS_SOURCE" envDefault:"mongo"` // mongo | firestore
	InsightsCustomerLimit   int    `env:"INSIGHTS_CUSTOMER_LIMIT" envDefault:"200"`
	InsightsOrderLimit      int    `env:"INSIGHTS_ORDER_LIMIT" envDefault:"500"`
	InsightsSegmentLimit    int    `env:"INSIGHTS_SEGMENT_LIMIT" envDefault:"10"`
	InsightsCacheTTL        int    `env:"INSIGHTS_CACHE_TTL" envDefault:"300"`         // giây, 0 = không cache
	InsightsRefreshInterval int    `env:"INSIGHTS_REFRESH_INTERVAL" envDefault:"900"`  // giây
	FirestoreCustomersPath  string `env:"FIRESTORE_CUSTOMERS_PATH" envDefault:"customers"`
	FirestoreOrdersPath     string `env:"FIRESTORE_ORDERS_PATH" envDefault:"orders"`

	// Cache: memory | redis
	CacheDriver string `env:"CACHE_DRIVER" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	// SMTP (ZeptoMail) cho email tổng hợp khách hàng có nguy cơ rời bỏ
	SMTPHost         string `env:"SMTP_HOST"`
	SMTPPort         int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername     string `env:"SMTP_USERNAME"`
	SMTPPassword     string `env:"SMTP_PASSWORD"`
	MailFromName     string `env:"MAIL_FROM_NAME" envDefault:"Customer Insights"`
	MailFromEmail    string `env:"MAIL_FROM_EMAIL"`
	DigestRecipients string `env:"DIGEST_RECIPIENTS"`                    // phân cách bởi dấu phẩy
	DigestInterval   int    `env:"DIGEST_INTERVAL" envDefault:"86400"` // giây, 0 = tắt worker

	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`
}

// SplitList tách chuỗi "a, b,c" thành slice, bỏ phần tử rỗng
func SplitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvPath trả về đường dẫn config/env/<GO_ENV>.env, tìm ngược lên từ working directory
func getEnvPath() string {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", goEnv))
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig đọc file env (nếu có) rồi parse biến môi trường vào Configuration.
// Không có file env thì vẫn đọc từ môi trường của process (container, systemd).
func NewConfig(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		if envPath := getEnvPath(); envPath != "" {
			files = []string{envPath}
		}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Configuration) normalize() error {
	c.Address = strings.TrimPrefix(c.Address, ":")
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))
	c.InsightsSource = strings.ToLower(strings.TrimSpace(c.InsightsSource))
	c.CacheDriver = strings.ToLower(strings.TrimSpace(c.CacheDriver))

	switch c.AuthMode {
	case "firebase", "jwt", "none":
	default:
		return fmt.Errorf("AUTH_MODE không hợp lệ: %q", c.AuthMode)
	}
	if c.AuthMode == "jwt" && c.JwtSecret == "" {
		return fmt.Errorf("AUTH_MODE=jwt cần JWT_SECRET")
	}
	switch c.InsightsSource {
	case "mongo", "firestore":
	default:
		return fmt.Errorf("INSIGHTS_SOURCE không hợp lệ: %q", c.InsightsSource)
	}
	switch c.CacheDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_DRIVER không hợp lệ: %q", c.CacheDriver)
	}
	if c.CacheDriver == "redis" && c.RedisURL == "" {
		return fmt.Errorf("CACHE_DRIVER=redis cần REDIS_URL")
	}

	if c.InsightsCustomerLimit <= 0 {
		c.InsightsCustomerLimit = 200
	}
	if c.InsightsOrderLimit <= 0 {
		c.InsightsOrderLimit = 500
	}
	if c.InsightsSegmentLimit <= 0 {
		c.InsightsSegmentLimit = 10
	}
	if c.InsightsCacheTTL < 0 {
		c.InsightsCacheTTL = 0
	}
	return nil
}

// SMTPEnabled cho biết đã đủ cấu hình để gửi email
func (c *Configuration) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.MailFromEmail != ""
}
