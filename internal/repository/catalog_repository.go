package repository

import (
	"errors"
	"fmt"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"gorm.io/gorm"
)

// ProductMeta 产品目录元数据
type ProductMeta struct {
	ProductID      uint
	Name           string
	ManufacturerID *uint
	UnitID         *uint
	Container      string
}

// nameSources 名称字典的表与展示列
var nameSources = map[string]struct {
	table  string
	column string
}{
	constants.NameKindCompany:      {"companies", "name"},
	constants.NameKindProduct:      {"products", "name"},
	constants.NameKindManufacturer: {"manufacturers", "name"},
	constants.NameKindUnit:         {"units", "COALESCE(NULLIF(short_name, ''), name)"},
	constants.NameKindPayer:        {"payers", "name"},
	constants.NameKindCulture:      {"cultures", "name"},
	constants.NameKindField:        {"fields", "name"},
	constants.NameKindWarehouse:    {"warehouses", "name"},
}

// CatalogRepository 参考数据只读查询接口
type CatalogRepository interface {
	ProductMeta(ids []uint) (map[uint]ProductMeta, error)
	NameMap(kind string, ids []uint) (map[uint]string, error)
	GetCompany(id uint) (*models.Company, error)
	WithTx(tx *gorm.DB) *GormCatalogRepository
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建参考数据仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) *GormCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

// ProductMeta 批量读取产品的厂家、单位与包装文本
func (r *GormCatalogRepository) ProductMeta(ids []uint) (map[uint]ProductMeta, error) {
	ids = uniqueIDs(ids)
	result := make(map[uint]ProductMeta, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []models.Product
	if err := r.db.Select("id", "name", "manufacturer_id", "unit_id", "container").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = ProductMeta{
			ProductID:      p.ID,
			Name:           p.Name,
			ManufacturerID: p.ManufacturerID,
			UnitID:         p.UnitID,
			Container:      p.Container,
		}
	}
	return result, nil
}

// NameMap 批量读取指定字典的名称
func (r *GormCatalogRepository) NameMap(kind string, ids []uint) (map[uint]string, error) {
	source, ok := nameSources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown name kind: %s", kind)
	}
	ids = uniqueIDs(ids)
	result := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []struct {
		ID   uint
		Name string
	}
	if err := r.db.Table(source.table).
		Select(fmt.Sprintf("id, %s AS name", source.column)).
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row.Name
	}
	return result, nil
}

// GetCompany 获取公司
func (r *GormCatalogRepository) GetCompany(id uint) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}
