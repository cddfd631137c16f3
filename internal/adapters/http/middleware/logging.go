package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger はリクエスト単位の構造化ログを出力するミドルウェアを返します。
func RequestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := logrus.Fields{
			"status":  c.Response().StatusCode(),
			"method":  c.Method(),
			"path":    c.Path(),
			"ip":      c.IP(),
			"latency": time.Since(start).String(),
		}

		if id := EmployeeIDFromCtx(c); id != "" {
			fields["employee_id"] = id
		}

		entry := logger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Error("request failed")
		} else {
			entry.Info("request processed")
		}

		return err
	}
}
