package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// operatorKey ключ оператора в gin.Context
const operatorKey = "operator"

// authMiddleware проверяет JWT оператора. Без выпускающего пропускает всех.
// Токен берётся из заголовка Authorization или параметра token (для websocket).
func (rs *RestServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.auth == nil {
			c.Next()
			return
		}

		token := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// Проверяем формат "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
					Success: false,
					Message: "Неверный формат токена",
				})
				return
			}
			token = parts[1]
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			return
		}

		claims, err := rs.auth.Validate(token)
		if err != nil {
			rs.logger.Debug("🔒 Отклонён токен: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			return
		}

		c.Set(operatorKey, claims.Operator)
		c.Next()
	}
}
