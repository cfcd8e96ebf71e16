package service

import (
	"context"
	"time"

	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/metrics"
	"github.com/agro-backoffice/internal/repository"

	"gorm.io/gorm"
)

// PlanApprovalResult 审批结果
type PlanApprovalResult struct {
	Affected int64       `json:"affected"`
	Sync     *SyncResult `json:"sync,omitempty"`
}

// PlanService 计划审批服务
type PlanService struct {
	db         *gorm.DB
	planRepo   repository.PlanRepository
	reconciler *ReconciliationService
	autoSync   bool
}

// NewPlanService 创建计划审批服务
func NewPlanService(db *gorm.DB, planRepo repository.PlanRepository, reconciler *ReconciliationService, autoSync bool) *PlanService {
	return &PlanService{
		db:         db,
		planRepo:   planRepo,
		reconciler: reconciler,
		autoSync:   autoSync,
	}
}

// Approve 审批单个计划
func (s *PlanService) Approve(ctx context.Context, planID uint) (*PlanApprovalResult, error) {
	return s.setApproved(ctx, []uint{planID}, true, true)
}

// Unapprove 撤销单个计划的审批
func (s *PlanService) Unapprove(ctx context.Context, planID uint) (*PlanApprovalResult, error) {
	return s.setApproved(ctx, []uint{planID}, false, true)
}

// BulkApprove 批量设置审批状态，忽略不存在的计划
func (s *PlanService) BulkApprove(ctx context.Context, planIDs []uint, approved bool) (*PlanApprovalResult, error) {
	if len(planIDs) == 0 {
		return nil, ErrInvalidScope
	}
	return s.setApproved(ctx, planIDs, approved, false)
}

func (s *PlanService) setApproved(ctx context.Context, planIDs []uint, approved, strict bool) (*PlanApprovalResult, error) {
	started := time.Now()
	result := &PlanApprovalResult{}
	fieldIDs := make([]uint, 0, len(planIDs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		planRepo := s.planRepo.WithTx(tx)
		plans, err := planRepo.ListByIDs(planIDs)
		if err != nil {
			return err
		}
		if strict && len(plans) == 0 {
			return ErrPlanNotFound
		}
		ids := make([]uint, 0, len(plans))
		for _, plan := range plans {
			ids = append(ids, plan.ID)
			fieldIDs = append(fieldIDs, plan.FieldID)
		}
		var at *time.Time
		if approved {
			now := time.Now()
			at = &now
		}
		if result.Affected, err = planRepo.SetApproved(ids, approved, at); err != nil {
			return err
		}
		if !s.autoSync || s.reconciler == nil || result.Affected == 0 || len(fieldIDs) == 0 {
			return nil
		}
		// 同步失败时审批一并回滚
		result.Sync, err = s.reconciler.syncTx(tx, SyncOptions{Scope: repository.PlanScope{FieldIDs: fieldIDs}}, started)
		return err
	})
	if err != nil {
		logger.Warnw("plan_approval_failed", "plan_ids", planIDs, "approved", approved, "error", err)
		return nil, err
	}
	if result.Sync != nil {
		metrics.ObserveSync(result.Sync.Added, result.Sync.Updated, result.Sync.MarkedStale, time.Since(started).Seconds())
	}
	logger.Infow("plan_approval_updated", "plan_ids", planIDs, "approved", approved, "affected", result.Affected, "synced", result.Sync != nil)
	return result, nil
}
