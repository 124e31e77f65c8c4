// Script cấp JWT cho job nội bộ gọi API insights (AUTH_MODE=jwt hoặc firebase kèm JWT_SECRET).
// Chạy: go run ./scripts/sign_service_token -sub digest-cron -ttl 720h
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/soringifei/lapiqure-sub001/config"
	"github.com/soringifei/lapiqure-sub001/internal/api/middleware"
)

func main() {
	subject := flag.String("sub", "", "tên job (claim sub)")
	ttl := flag.Duration("ttl", 24*time.Hour, "thời gian sống của token")
	flag.Parse()

	if *subject == "" {
		log.Fatal("Cần -sub")
	}
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Đọc cấu hình lỗi: %v", err)
	}
	if cfg.JwtSecret == "" {
		log.Fatal("Cần JWT_SECRET trong cấu hình")
	}

	token, err := middleware.SignServiceToken(cfg.JwtSecret, *subject, *ttl)
	if err != nil {
		log.Fatalf("Ký token lỗi: %v", err)
	}
	fmt.Println(token)
}
