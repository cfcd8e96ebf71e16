package admin

import (
	handlershared "github.com/agro-backoffice/internal/http/handlers/shared"
	"github.com/agro-backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

// parseIDParam 读取路径中的 :id，非法时直接返回错误响应。
func parseIDParam(c *gin.Context) (uint, bool) {
	id, ok := handlershared.ParseUint(c.Param("id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return 0, false
	}
	return id, true
}

// queryUintOrReject 读取可选 uint 查询参数，非法时返回错误响应。
func queryUintOrReject(c *gin.Context, key string) (uint, bool) {
	value, ok := handlershared.QueryUint(c, key)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return value, true
}
