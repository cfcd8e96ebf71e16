package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agro-backoffice/internal/cache"
	"github.com/agro-backoffice/internal/config"
	adminhandlers "github.com/agro-backoffice/internal/http/handlers/admin"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/metrics"
	"github.com/agro-backoffice/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "agro"
	}
	submitRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:purchase_submit", redisPrefix),
		WindowSeconds: cfg.Purchase.SubmitRateWindowSeconds,
		MaxRequests:   cfg.Purchase.SubmitRateMaxRequests,
	}
	submitThrottle := NewThrottle(cache.Client(), submitRule)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(LocaleMiddleware())

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 付款分配
			admin.GET("/allocations", adminHandler.GetAllocations)
			admin.POST("/allocations/sync", adminHandler.SyncAllocations)
			admin.POST("/allocations/reconcile", adminHandler.ReconcileAllocations)
			admin.POST("/allocations/bulk-payer", adminHandler.BulkAssignPayer)
			admin.DELETE("/allocations/stale", adminHandler.PurgeStaleAllocations)
			admin.PUT("/allocations/:id/payer", adminHandler.SetAllocationPayer)
			admin.POST("/allocations/:id/recompute", adminHandler.RecomputeAllocation)

			// 汇总与需求
			admin.GET("/purchases/consolidated", adminHandler.GetConsolidated)
			admin.GET("/purchases/consolidated/export", adminHandler.ExportConsolidated)
			admin.GET("/purchases/needs", adminHandler.GetNeeds)

			// 采购申请
			admin.POST("/purchase-orders", RateLimitMiddleware(submitThrottle, KeyByJSONField("company_id")), adminHandler.SubmitPurchaseOrder)
			admin.GET("/purchase-orders", adminHandler.GetPurchaseOrders)
			admin.GET("/purchase-orders/:id", adminHandler.GetPurchaseOrder)
			admin.PATCH("/purchase-orders/:id/status", adminHandler.UpdatePurchaseOrderStatus)
			admin.DELETE("/purchase-orders/:id", adminHandler.DeletePurchaseOrder)

			// 仓库入库
			admin.GET("/warehouse/journal", adminHandler.GetReceiveJournal)
			admin.GET("/warehouse/journal/export", adminHandler.ExportReceipts)
			admin.GET("/warehouse/receive/:id", adminHandler.GetReceiveView)
			admin.POST("/warehouse/receive/:id", adminHandler.ReceiveOrder)
			admin.GET("/warehouse/stock", adminHandler.GetStockBalances)
			admin.GET("/warehouse/transactions", adminHandler.GetStockTransactions)

			// 计划审批
			admin.POST("/plans/bulk-approve", adminHandler.BulkApprovePlans)
			admin.POST("/plans/:id/approve", adminHandler.ApprovePlan)
			admin.POST("/plans/:id/unapprove", adminHandler.UnapprovePlan)

			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		if c.DB != nil {
			if sqlDB, err := c.DB.DB(); err == nil {
				if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
					ctx.JSON(503, gin.H{"status": "db_unavailable"})
					return
				}
			}
		}
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Addr) == "" {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	return r
}

type adminRouteCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildAdminRouteCatalog 列出后台接口，供前端按模块生成菜单
func buildAdminRouteCatalog(engine *gin.Engine) []adminRouteCatalogItem {
	if engine == nil {
		return []adminRouteCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminRouteCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, adminRouteCatalogItem{
			Module: deriveAdminRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/admin/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	return segments[0]
}
