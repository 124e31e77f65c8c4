package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/soringifei/lapiqure-sub001/config"
	"github.com/soringifei/lapiqure-sub001/internal/database"
	"github.com/soringifei/lapiqure-sub001/internal/global"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
	"github.com/soringifei/lapiqure-sub001/internal/worker"
)

// initLogger khởi tạo logger, cấu hình đọc từ biến môi trường LOG_*
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// resolvePath đường dẫn tương đối tính từ thư mục chứa config/env
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	currentDir, err := os.Getwd()
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return filepath.Join(currentDir, path)
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return path
		}
		currentDir = parentDir
	}
}

// main_thread chạy Fiber server, trả về khi server dừng
func main_thread(app *fiber.App, cfg *config.Configuration) {
	address := ":" + cfg.Address
	log := logger.GetAppLogger()

	if cfg.EnableTLS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		certPath := resolvePath(cfg.TLSCertFile)
		keyPath := resolvePath(cfg.TLSKeyFile)

		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			log.Fatalf("Error loading TLS certificate: %v", err)
		}
		ln, err := net.Listen("tcp", address)
		if err != nil {
			log.Fatalf("Error creating listener: %v", err)
		}
		tlsListener := tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})

		log.WithFields(map[string]interface{}{
			"address": address,
			"cert":    certPath,
		}).Info("Starting server with HTTPS/TLS")
		if err := app.Listener(tlsListener); err != nil {
			log.Errorf("Error in Fiber Listener with TLS: %v", err)
		}
		return
	}

	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting server with HTTP")
	if err := app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Errorf("Error in Fiber Listen: %v", err)
	}
}

// startWorkers chạy worker làm mới cache và worker gửi email tổng hợp
func startWorkers(ctx context.Context, wg *sync.WaitGroup, svc *Services, cfg *config.Configuration) {
	log := logger.GetAppLogger()

	refresher := worker.NewInsightsRefreshWorker(svc.Insights, time.Duration(cfg.InsightsRefreshInterval)*time.Second)
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Start(ctx)
	}()

	if cfg.DigestInterval <= 0 {
		log.Info("📧 [INSIGHTS] DIGEST_INTERVAL=0, tắt worker email tổng hợp")
		return
	}
	digest := worker.NewInsightsDigestWorker(svc.Insights, svc.Sender, svc.Recipients, time.Duration(cfg.DigestInterval)*time.Second)
	if !digest.Enabled() {
		log.Info("📧 [INSIGHTS] Thiếu SMTP hoặc DIGEST_RECIPIENTS, tắt worker email tổng hợp")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		digest.Start(ctx)
	}()
}

func main() {
	initLogger()
	defer logger.Shutdown()

	InitGlobal()
	InitRegistry()

	cfg := global.MongoDB_ServerConfig
	svc := InitServices()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	startWorkers(ctx, &wg, svc, cfg)

	app := InitFiberApp(svc)
	go func() {
		<-ctx.Done()
		logger.GetAppLogger().Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.GetAppLogger().Errorf("Server shutdown error: %v", err)
		}
	}()

	main_thread(app, cfg)

	// server đã dừng: huỷ worker rồi đóng kết nối
	stop()
	wg.Wait()
	svc.Close()
	if err := database.CloseInstance(global.MongoDB_Session); err != nil {
		logger.GetAppLogger().Errorf("Failed to close MongoDB: %v", err)
	}
	logger.GetAppLogger().Info("Server stopped")
}
