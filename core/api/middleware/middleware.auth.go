package middleware

import (
	"fmt"
	"strings"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/logger"
)

// principalFromToken parse bearer token và trả về principal (JWT sub).
// Token không có, sai định dạng, sai chữ ký hoặc hết hạn đều trả về error.
func principalFromToken(c fiber.Ctx, jwtSecret string) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", common.ErrTokenMissing
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", common.ErrTokenInvalid
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", common.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", common.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", common.ErrTokenInvalid
	}

	return sub, nil
}

// RequireAuth middleware xác thực bắt buộc: request không có token hợp lệ bị chặn 401.
// Principal được lưu vào Locals("principal") cho handler.
func RequireAuth(jwtSecret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		principal, err := principalFromToken(c, jwtSecret)
		if err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("Request bị chặn: token thiếu hoặc không hợp lệ")
			HandleErrorResponse(c, err)
			return nil
		}

		c.Locals("principal", principal)
		return c.Next()
	}
}

// OptionalAuth middleware xác thực tùy chọn: token thiếu hoặc không hợp lệ
// resolve về sentinel ẩn danh thay vì chặn request.
func OptionalAuth(jwtSecret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		principal, err := principalFromToken(c, jwtSecret)
		if err != nil {
			principal = common.AnonymousPrincipal
		}

		c.Locals("principal", principal)
		return c.Next()
	}
}
