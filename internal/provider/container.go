package provider

import (
	"time"

	"github.com/agro-backoffice/internal/cache"
	"github.com/agro-backoffice/internal/config"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"
	"github.com/agro-backoffice/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config
	DB     *gorm.DB

	// Repositories
	PlanRepo       repository.PlanRepository
	CatalogRepo    repository.CatalogRepository
	AllocationRepo repository.AllocationRepository
	OrderRepo      repository.PurchaseOrderRepository
	StockRepo      repository.StockRepository

	// Services
	NameResolver          *service.NameResolver
	SubmitLocker          service.SubmitLocker
	ReconciliationService *service.ReconciliationService
	ConsolidationService  *service.ConsolidationService
	PurchaseOrderService  *service.PurchaseOrderService
	ReceivingService      *service.ReceivingService
	AllocationService     *service.AllocationService
	PlanService           *service.PlanService
	NeedsService          *service.NeedsService
	ExportService         *service.ExportService
}

// NewContainer 初始化容器，数据库取自 models.DB
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定连接初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	c := &Container{
		Config: cfg,
		DB:     db,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	c.PlanRepo = repository.NewPlanRepository(c.DB)
	c.CatalogRepo = repository.NewCatalogRepository(c.DB)
	c.AllocationRepo = repository.NewAllocationRepository(c.DB)
	c.OrderRepo = repository.NewPurchaseOrderRepository(c.DB)
	c.StockRepo = repository.NewStockRepository(c.DB)
}

func (c *Container) initServices() {
	purchase := c.Config.Purchase
	nameTTL := time.Duration(c.Config.Redis.NameCacheTTLSeconds) * time.Second

	c.NameResolver = service.NewNameResolver(c.CatalogRepo, nameTTL)
	c.SubmitLocker = service.NewSubmitLocker()
	c.ReconciliationService = service.NewReconciliationService(c.DB, c.PlanRepo, c.CatalogRepo, c.AllocationRepo)
	c.ConsolidationService = service.NewConsolidationService(
		c.AllocationRepo,
		c.OrderRepo,
		c.CatalogRepo,
		c.NameResolver,
		purchase.PackageRounding,
	)
	c.PurchaseOrderService = service.NewPurchaseOrderService(
		c.DB,
		c.OrderRepo,
		c.AllocationRepo,
		c.CatalogRepo,
		c.StockRepo,
		c.NameResolver,
		c.SubmitLocker,
		time.Duration(purchase.SubmitLockTTLSeconds)*time.Second,
	)
	c.ReceivingService = service.NewReceivingService(
		c.DB,
		c.OrderRepo,
		c.StockRepo,
		c.CatalogRepo,
		c.NameResolver,
		purchase.DefaultWarehouseID,
	)
	c.AllocationService = service.NewAllocationService(c.DB, c.AllocationRepo, c.CatalogRepo, c.NameResolver)
	c.PlanService = service.NewPlanService(c.DB, c.PlanRepo, c.ReconciliationService, purchase.AutoSyncOnApprove)
	c.NeedsService = service.NewNeedsService(c.PlanRepo, c.NameResolver)
	c.ExportService = service.NewExportService(c.ConsolidationService, c.ReceivingService, c.NameResolver)
}
