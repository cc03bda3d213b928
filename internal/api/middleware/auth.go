package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-hotel-reservation/internal/domain/identity"
)

// PrincipalKey は認証済みPrincipalを格納するコンテキストキー
const PrincipalKey = "principal"

// ローカル開発用の認証ヘッダー
const (
	HeaderAccountID = "X-Account-ID"
	HeaderRole      = "X-Role"
)

// Auth はリクエストからPrincipalを解決するミドルウェア
// secret が設定されている場合は Authorization: Bearer のJWT（HS256）を検証する
// 空の場合は X-Account-ID / X-Role ヘッダーを信用する（ローカル開発用）
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := resolvePrincipal(c, secret)
			if err != nil {
				return err
			}
			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom はコンテキストからPrincipalを取り出す
func PrincipalFrom(c echo.Context) (identity.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(identity.Principal)
	return p, ok
}

func resolvePrincipal(c echo.Context, secret string) (identity.Principal, error) {
	if secret == "" {
		accountID := c.Request().Header.Get(HeaderAccountID)
		if accountID == "" {
			return identity.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "認証情報が必要です")
		}
		role := identity.Role(c.Request().Header.Get(HeaderRole))
		if role == "" {
			role = identity.RoleGuest
		}
		return identity.Principal{AccountID: accountID, Role: role, Active: true}, nil
	}

	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return identity.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "Bearerトークンが必要です")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(authz, prefix), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("想定外の署名方式: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return identity.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "トークンが無効です")
	}

	accountID, _ := claims["account_id"].(string)
	if accountID == "" {
		// 標準クレームへのフォールバック
		accountID, _ = claims["sub"].(string)
	}
	if accountID == "" {
		return identity.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "トークンにアカウントIDがありません")
	}

	role := identity.RoleGuest
	if r, ok := claims["role"].(string); ok && r != "" {
		role = identity.Role(r)
	}
	active := true
	if a, ok := claims["active"].(bool); ok {
		active = a
	}

	return identity.Principal{AccountID: accountID, Role: role, Active: active}, nil
}
