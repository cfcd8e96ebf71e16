package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/agro-backoffice/internal/cache"
	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/repository"
)

// NameResolver 名称字典批量解析，Redis 启用时带缓存
type NameResolver struct {
	catalogRepo repository.CatalogRepository
	ttl         time.Duration
}

// NewNameResolver 创建名称解析器
func NewNameResolver(catalogRepo repository.CatalogRepository, ttl time.Duration) *NameResolver {
	return &NameResolver{catalogRepo: catalogRepo, ttl: ttl}
}

// Resolve 解析名称，缺失项不出现在结果中
func (r *NameResolver) Resolve(ctx context.Context, kind string, ids []uint) (map[uint]string, error) {
	result := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	useCache := r.ttl > 0 && cache.Enabled()

	missing := ids
	if useCache {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = nameCacheKey(kind, id)
		}
		hits, err := cache.GetStrings(ctx, keys)
		if err != nil {
			logger.Warnw("name_cache_get_failed", "kind", kind, "error", err)
		}
		missing = make([]uint, 0, len(ids))
		for _, id := range ids {
			if name, ok := hits[nameCacheKey(kind, id)]; ok {
				result[id] = name
				continue
			}
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := r.catalogRepo.NameMap(kind, missing)
	if err != nil {
		return nil, err
	}
	toCache := make(map[string]string, len(loaded))
	for id, name := range loaded {
		result[id] = name
		toCache[nameCacheKey(kind, id)] = name
	}
	if useCache {
		if err := cache.SetStrings(ctx, toCache, r.ttl); err != nil {
			logger.Warnw("name_cache_set_failed", "kind", kind, "error", err)
		}
	}
	return result, nil
}

// Names 批量解析多个字典
func (r *NameResolver) Names(ctx context.Context, ids map[string][]uint) (NameBook, error) {
	book := make(NameBook, len(ids))
	for kind, list := range ids {
		names, err := r.Resolve(ctx, kind, list)
		if err != nil {
			return nil, err
		}
		book[kind] = names
	}
	return book, nil
}

func nameCacheKey(kind string, id uint) string {
	return fmt.Sprintf("names:%s:%s", kind, strconv.FormatUint(uint64(id), 10))
}

// NameBook 按字典类型分组的名称
type NameBook map[string]map[uint]string

// Get 获取名称，未解析时返回占位符
func (b NameBook) Get(kind string, id *uint) string {
	if id == nil || *id == 0 {
		return constants.NamePlaceholder
	}
	return b.GetID(kind, *id)
}

// GetID 获取名称，未解析时返回占位符
func (b NameBook) GetID(kind string, id uint) string {
	if names, ok := b[kind]; ok {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
	}
	return constants.NamePlaceholder
}

// idCollector 收集各字典需要解析的 ID
type idCollector map[string][]uint

func (c idCollector) add(kind string, id uint) {
	if id == 0 {
		return
	}
	c[kind] = append(c[kind], id)
}

func (c idCollector) addPtr(kind string, id *uint) {
	if id == nil {
		return
	}
	c.add(kind, *id)
}
