package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

// Loại xác thực, lưu vào Locals("authKind")
const (
	AuthKindFirebase = "firebase"
	AuthKindService  = "service"
	AuthKindNone     = "none"
)

// InsightsScope scope bắt buộc trong JWT của service job
const InsightsScope = "insights"

// Principal người gọi đã xác thực
type Principal struct {
	UserID string
	Kind   string
}

// TokenVerifier xác thực bearer token. Token sai -> common.ErrTokenInvalid, đúng nhưng không có quyền -> common.ErrForbidden.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// idTokenVerifier phần cần dùng của *auth.Client
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier xác thực Firebase ID token, chỉ cho admin (uid trong danh sách hoặc custom claim admin=true)
type FirebaseVerifier struct {
	client    idTokenVerifier
	adminUIDs map[string]bool
}

func NewFirebaseVerifier(client *auth.Client, adminUIDs []string) *FirebaseVerifier {
	return newFirebaseVerifier(client, adminUIDs)
}

func newFirebaseVerifier(client idTokenVerifier, adminUIDs []string) *FirebaseVerifier {
	admins := make(map[string]bool, len(adminUIDs))
	for _, uid := range adminUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			admins[uid] = true
		}
	}
	return &FirebaseVerifier{client: client, adminUIDs: admins}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}
	if v.adminUIDs[tok.UID] {
		return &Principal{UserID: tok.UID, Kind: AuthKindFirebase}, nil
	}
	if isAdmin, _ := tok.Claims["admin"].(bool); isAdmin {
		return &Principal{UserID: tok.UID, Kind: AuthKindFirebase}, nil
	}
	return nil, common.ErrForbidden
}

// ServiceClaims claims của JWT HS256 cấp cho job nội bộ
type ServiceClaims struct {
	Scope string `json:"scope"`
	jwt.StandardClaims
}

// JWTVerifier xác thực JWT HS256 ký bằng JWT_SECRET, yêu cầu sub + scope=insights
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	var claims ServiceClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, common.ErrTokenInvalid
	}
	if claims.Scope != InsightsScope {
		return nil, common.ErrForbidden
	}
	return &Principal{UserID: claims.Subject, Kind: AuthKindService}, nil
}

// SignServiceToken cấp JWT cho job nội bộ (dùng trong script và test)
func SignServiceToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Scope: InsightsScope,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ChainVerifier thử lần lượt; token hợp lệ nhưng bị từ chối quyền thì dừng ngay
type ChainVerifier []TokenVerifier

func (ch ChainVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	lastErr := common.ErrTokenInvalid
	for _, v := range ch {
		if v == nil {
			continue
		}
		p, err := v.Verify(ctx, token)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, common.ErrForbidden) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// AuthMiddleware middleware xác thực cho Fiber. verifier nil = AUTH_MODE=none (chỉ dùng khi phát triển).
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		if verifier == nil {
			c.Locals("userID", "anonymous")
			c.Locals("authKind", AuthKindNone)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Missing Authorization header")
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		principal, err := verifier.Verify(c.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			logger.WithRequest(c).WithError(err).Warn("❌ [AUTH] Token bị từ chối")
			HandleErrorResponse(c, err)
			return nil
		}

		c.Locals("userID", principal.UserID)
		c.Locals("authKind", principal.Kind)
		return c.Next()
	}
}

// AuditMiddleware ghi audit log sau khi route xử lý xong
func AuditMiddleware(action string) fiber.Handler {
	return func(c fiber.Ctx) error {
		err := c.Next()
		logger.LogAction(action, c, map[string]interface{}{
			"path":   c.Path(),
			"status": c.Response().StatusCode(),
		})
		return err
	}
}
