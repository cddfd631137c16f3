package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// EmployeeIDKey は認証済み従業員IDを fiber.Ctx に格納するキーです。
const EmployeeIDKey = "employeeID"

// AuthRequired は Bearer トークン認証を強制するミドルウェアを返します。
// 検証済みトークンの sub クレームを従業員IDとしてコンテキストに格納します。
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization header required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header format",
			})
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token claims",
			})
		}

		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token subject",
			})
		}

		c.Locals(EmployeeIDKey, sub)

		return c.Next()
	}
}

// IssueToken は従業員IDを sub クレームに持つ署名済みトークンを発行します。
func IssueToken(secret string, employeeID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": employeeID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// EmployeeIDFromCtx は認証済み従業員IDを取り出します。未認証の場合は空文字を返します。
func EmployeeIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(EmployeeIDKey).(string)
	return id
}
