package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/logger"
)

// RateLimiterInterface はレート制限の抽象。Redis実装をテストで差し替える
type RateLimiterInterface interface {
	Allow(ctx context.Context, id string) (bool, error)
}

// RateLimit は呼び出し元単位のレート制限を行うミドルウェア
// 認証済みならアカウントID、未認証ならリモートIPで識別する
// limiter が nil の場合（Redis未接続）はパススルーする
func RateLimit(limiter RateLimiterInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}

			id := c.RealIP()
			if p, ok := PrincipalFrom(c); ok {
				id = p.AccountID
			}

			allowed, err := limiter.Allow(c.Request().Context(), id)
			if err != nil {
				// Redis障害でAPIを止めない
				logger.Warn("レート制限の判定に失敗", zap.String("id", id), zap.Error(err))
				return next(c)
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests, "リクエストが多すぎます")
			}
			return next(c)
		}
	}
}
