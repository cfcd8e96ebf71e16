package response

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	// XLSXContentType Excel 导出的 MIME 类型
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// BusinessCodeKey 错误响应写入 gin.Context 的业务码键
	BusinessCodeKey = "business_code"
)

// Response 统一响应结构，HTTP 状态始终为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	RequestID  string      `json:"request_id,omitempty"` // 仅错误响应携带
}

// PageResponse 分页响应结构
type PageResponse struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// NewPagination 按总数计算页数
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
	})
}

// Page 分页成功响应
func Page(c *gin.Context, items interface{}, page, pageSize int, total int64) {
	c.JSON(http.StatusOK, PageResponse{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       items,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// Error 错误响应
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithData(c, statusCode, msg, nil)
}

// ErrorWithData 错误响应，data 用于返回可定位的明细（如超收行号）
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	c.Set(BusinessCodeKey, statusCode)
	c.JSON(http.StatusOK, Response{
		StatusCode: statusCode,
		Msg:        msg,
		Data:       data,
		RequestID:  requestID(c),
	})
}

// Attachment 以附件形式下发文件
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
	c.Data(http.StatusOK, contentType, body)
}

// BusinessCode 返回已写出的业务码，未出错时为 CodeOK
func BusinessCode(c *gin.Context) int {
	if value, ok := c.Get(BusinessCodeKey); ok {
		if code, ok := value.(int); ok {
			return code
		}
	}
	return CodeOK
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
