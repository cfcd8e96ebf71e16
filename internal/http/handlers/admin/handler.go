package admin

import "github.com/agro-backoffice/internal/provider"

// Handler 后台业务接口处理器入口
// 说明：分配、采购申请与入库接口共用同一个容器。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
