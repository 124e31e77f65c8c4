package main

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"

	"github.com/soringifei/lapiqure-sub001/config"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/api/middleware"
	"github.com/soringifei/lapiqure-sub001/internal/delivery/channels"
	"github.com/soringifei/lapiqure-sub001/internal/global"
	"github.com/soringifei/lapiqure-sub001/internal/metrics"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

// Services các phụ thuộc dựng một lần lúc khởi động, dùng chung cho router và worker
type Services struct {
	Cache      utility.Cache
	Metrics    *metrics.Insights
	Insights   *crmvc.CrmInsightsService
	Verifier   middleware.TokenVerifier
	Sender     crmvc.DigestSender
	Recipients []string

	firestore *firestore.Client
}

// InitServices dựng cache, nguồn dữ liệu, service insights, xác thực và kênh email theo cấu hình
func InitServices() *Services {
	cfg := global.MongoDB_ServerConfig
	s := &Services{Metrics: metrics.New()}

	s.Cache = initCache(cfg)

	var fbApp *firebase.App
	if cfg.AuthMode == "firebase" || cfg.InsightsSource == crmvc.SourceFirestore {
		fbApp = initFirebase(cfg)
	}

	source := s.initSource(cfg, fbApp)
	s.Insights = crmvc.NewCrmInsightsService(source, s.Cache, s.Metrics, crmvc.InsightsOptions{
		CustomerLimit: cfg.InsightsCustomerLimit,
		OrderLimit:    cfg.InsightsOrderLimit,
		SegmentLimit:  cfg.InsightsSegmentLimit,
		CacheTTL:      time.Duration(cfg.InsightsCacheTTL) * time.Second,
	})
	logrus.Infof("Insights service ready (source=%s)", source.Name())

	s.Verifier = initVerifier(cfg, fbApp)
	s.Recipients = config.SplitList(cfg.DigestRecipients)
	if cfg.SMTPEnabled() {
		sender, err := channels.NewSMTPSender(channels.SMTPConfigFrom(cfg))
		if err != nil {
			logrus.Errorf("SMTP sender không khởi tạo được, tắt email tổng hợp: %v", err)
		} else {
			s.Sender = sender
		}
	} else {
		logrus.Warn("SMTP chưa cấu hình, tắt email tổng hợp")
	}
	return s
}

// Close đóng cache và firestore client
func (s *Services) Close() {
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			logrus.Errorf("Failed to close cache: %v", err)
		}
	}
	if s.firestore != nil {
		if err := s.firestore.Close(); err != nil {
			logrus.Errorf("Failed to close firestore client: %v", err)
		}
	}
}

func initCache(cfg *config.Configuration) utility.Cache {
	if cfg.CacheDriver == "redis" {
		client, err := utility.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Failed to connect Redis: %v", err)
		}
		cache := utility.NewRedisCache(client, "insights:")
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.Ping(ctx); err != nil {
			logrus.Fatalf("Failed to ping Redis: %v", err)
		}
		logrus.Info("Cache driver: redis")
		return cache
	}
	logrus.Info("Cache driver: memory")
	return utility.NewMemoryCache(time.Minute)
}

// initFirebase khởi tạo Firebase Admin SDK, lỗi thì dừng vì AUTH_MODE=firebase hoặc nguồn firestore bắt buộc cần
func initFirebase(cfg *config.Configuration) *firebase.App {
	app, err := utility.InitFirebase(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath)
	if err != nil {
		logrus.Fatalf("Failed to initialize Firebase: %v", err)
	}
	logrus.Info("Firebase initialized successfully")
	return app
}

func (s *Services) initSource(cfg *config.Configuration, fbApp *firebase.App) crmvc.InsightSource {
	if cfg.InsightsSource == crmvc.SourceFirestore {
		client, err := fbApp.Firestore(context.Background())
		if err != nil {
			logrus.Fatalf("Failed to create firestore client: %v", err)
		}
		s.firestore = client
		return crmvc.NewFirestoreInsightSource(client, cfg.FirestoreCustomersPath, cfg.FirestoreOrdersPath)
	}

	source, err := crmvc.NewMongoInsightSource()
	if err != nil {
		logrus.Fatalf("Failed to create mongo insight source: %v", err)
	}
	return source
}

// initVerifier: firebase (kèm JWT cho job nội bộ nếu có JWT_SECRET) | jwt | none
func initVerifier(cfg *config.Configuration, fbApp *firebase.App) middleware.TokenVerifier {
	switch cfg.AuthMode {
	case "firebase":
		authClient, err := fbApp.Auth(context.Background())
		if err != nil {
			logrus.Fatalf("Failed to create firebase auth client: %v", err)
		}
		global.FirebaseAuth = authClient
		chain := middleware.ChainVerifier{middleware.NewFirebaseVerifier(authClient, config.SplitList(cfg.FirebaseAdminUIDs))}
		if cfg.JwtSecret != "" {
			chain = append(chain, middleware.NewJWTVerifier(cfg.JwtSecret))
		}
		return chain
	case "jwt":
		return middleware.NewJWTVerifier(cfg.JwtSecret)
	default:
		logrus.Warn("AUTH_MODE=none: API insights không yêu cầu xác thực")
		return nil
	}
}
