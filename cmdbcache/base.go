// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package cmdbcache cmdb实体缓存刷新与读取
package cmdbcache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
)

// decodeCacheValue 反序列化缓存值，空值或解析失败均视为未命中
func decodeCacheValue[T any](key, field, value string) *T {
	if value == "" {
		return nil
	}
	var entity T
	if err := jsonx.UnmarshalString(value, &entity); err != nil {
		logging.Warnf("malformed cache value, key: %s, field: %s, error: %v", key, field, err)
		return nil
	}
	return &entity
}

// Manager 缓存管理器接口
type Manager interface {
	// Type 缓存类型
	Type() string
	// RefreshByBiz 按业务刷新缓存
	RefreshByBiz(ctx context.Context, bkBizId int) error
	// RefreshGlobal 刷新全局缓存
	RefreshGlobal(ctx context.Context) error
	// CleanGlobal 清理全局缓存中已失效的字段并续期
	CleanGlobal(ctx context.Context) error
	// Reset 重置刷新状态
	Reset()

	// useBiz 是否按业务执行
	useBiz() bool
	// GetBkTenantId 获取bk_tenant_id
	GetBkTenantId() string
}

// BaseCacheManager 基础缓存管理器
type BaseCacheManager struct {
	bkTenantId string
	Store      *redis.Instance
	Expire     time.Duration

	updatedFieldSet  map[string]map[string]struct{}
	updateFieldLocks map[string]*sync.Mutex

	failedBizSet  map[int]struct{}
	failedBizLock sync.Mutex
}

// NewBaseCacheManager 创建基础缓存管理器
func NewBaseCacheManager(bkTenantId string, store *redis.Instance) *BaseCacheManager {
	return &BaseCacheManager{
		bkTenantId:       bkTenantId,
		Store:            store,
		Expire:           time.Duration(config.CmdbCacheExpireSeconds) * time.Second,
		updatedFieldSet:  make(map[string]map[string]struct{}),
		updateFieldLocks: make(map[string]*sync.Mutex),
		failedBizSet:     make(map[int]struct{}),
	}
}

// initUpdatedFieldSet 初始化更新字段集合，确保后续不存在并发问题
func (c *BaseCacheManager) initUpdatedFieldSet(components ...rediskey.CmdbComponent) {
	for _, component := range components {
		key := c.GetCacheKey(component)
		c.updatedFieldSet[key] = make(map[string]struct{})
		c.updateFieldLocks[key] = &sync.Mutex{}
	}
}

// GetBkTenantId 获取bk_tenant_id
func (c *BaseCacheManager) GetBkTenantId() string {
	return c.bkTenantId
}

// GetCacheKey 获取缓存key
func (c *BaseCacheManager) GetCacheKey(component rediskey.CmdbComponent) string {
	return rediskey.CmdbCacheKey(c.bkTenantId, component)
}

// Reset 重置刷新状态
func (c *BaseCacheManager) Reset() {
	for key := range c.updatedFieldSet {
		c.updateFieldLocks[key].Lock()
		c.updatedFieldSet[key] = make(map[string]struct{})
		c.updateFieldLocks[key].Unlock()
	}

	c.failedBizLock.Lock()
	c.failedBizSet = make(map[int]struct{})
	c.failedBizLock.Unlock()
}

// markBizFailed 记录刷新失败的业务，清理阶段保留其字段
func (c *BaseCacheManager) markBizFailed(bkBizId int) {
	c.failedBizLock.Lock()
	c.failedBizSet[bkBizId] = struct{}{}
	c.failedBizLock.Unlock()
}

// hasFailedBiz 是否存在刷新失败的业务
func (c *BaseCacheManager) hasFailedBiz() bool {
	c.failedBizLock.Lock()
	defer c.failedBizLock.Unlock()
	return len(c.failedBizSet) > 0
}

// isBizFailed 业务本轮刷新是否失败
func (c *BaseCacheManager) isBizFailed(bkBizId int) bool {
	c.failedBizLock.Lock()
	defer c.failedBizLock.Unlock()
	_, ok := c.failedBizSet[bkBizId]
	return ok
}

// UpdateHashMapCache 更新hashmap类型缓存并记录已更新字段
func (c *BaseCacheManager) UpdateHashMapCache(ctx context.Context, key string, data map[string]string) error {
	updatedFieldSet := c.updatedFieldSet[key]
	lock := c.updateFieldLocks[key]

	pipeline := c.Store.Pipeline()
	lock.Lock()
	for field, value := range data {
		updatedFieldSet[field] = struct{}{}
		if err := pipeline.HSet(ctx, key, field, value); err != nil {
			lock.Unlock()
			return errors.Wrapf(err, "update hashmap cache [%s] failed", key)
		}
	}
	lock.Unlock()

	if err := pipeline.Exec(ctx); err != nil {
		return errors.Wrapf(err, "update hashmap cache [%s] failed", key)
	}
	return nil
}

// DeleteMissingHashMapFields 删除hashmap缓存中本轮未更新的字段
// bizOf 从字段值解析归属业务，返回false表示无法判断归属；
// 刷新失败业务的字段以及无法判断归属且存在失败业务时的字段一律保留
func (c *BaseCacheManager) DeleteMissingHashMapFields(ctx context.Context, key string, bizOf func(field, value string) (int, bool)) error {
	updatedFieldSet := c.updatedFieldSet[key]
	if len(updatedFieldSet) == 0 && !c.hasFailedBiz() {
		return c.Store.Delete(ctx, key)
	}

	existing, err := c.Store.HGetAll(ctx, key)
	if err != nil {
		return err
	}

	needDeleteFields := make([]string, 0)
	for field, value := range existing {
		if _, ok := updatedFieldSet[field]; ok {
			continue
		}
		if c.hasFailedBiz() {
			if bizOf == nil {
				continue
			}
			bkBizId, ok := bizOf(field, value)
			if !ok || c.isBizFailed(bkBizId) {
				continue
			}
		}
		needDeleteFields = append(needDeleteFields, field)
	}

	if len(needDeleteFields) > 0 {
		if err := c.Store.HDel(ctx, key, needDeleteFields...); err != nil {
			return err
		}
		logging.Infof("delete missing hashmap fields, key: %s, count: %d", key, len(needDeleteFields))
	}
	return nil
}

// UpdateExpire 更新缓存过期时间
func (c *BaseCacheManager) UpdateExpire(ctx context.Context, key string) error {
	return c.Store.Expire(ctx, key, c.Expire)
}

// RefreshByBiz 按业务刷新缓存，默认无操作
func (c *BaseCacheManager) RefreshByBiz(ctx context.Context, bkBizId int) error {
	return nil
}

// RefreshGlobal 刷新全局缓存，默认无操作
func (c *BaseCacheManager) RefreshGlobal(ctx context.Context) error {
	return nil
}

// useBiz 是否按业务执行
func (c *BaseCacheManager) useBiz() bool {
	return true
}

// NewCacheManagerByType 按类型创建缓存管理器
func NewCacheManagerByType(
	bkTenantId string, store *redis.Instance, cmdb provider.CmdbProvider, cacheType string,
) (Manager, error) {
	switch cacheType {
	case "business":
		return NewBusinessCacheManager(bkTenantId, store, cmdb), nil
	case "host_topo":
		return NewHostAndTopoCacheManager(bkTenantId, store, cmdb), nil
	case "module":
		return NewModuleCacheManager(bkTenantId, store, cmdb), nil
	case "set":
		return NewSetCacheManager(bkTenantId, store, cmdb), nil
	case "service_instance":
		return NewServiceInstanceCacheManager(bkTenantId, store, cmdb), nil
	default:
		return nil, errors.Errorf("unsupported cache type: %s", cacheType)
	}
}

// CacheTypes 全部缓存管理器类型
var CacheTypes = []string{"business", "host_topo", "module", "set", "service_instance"}

// RefreshAll 执行一轮完整刷新：按业务并发刷新、全局刷新、清理失效字段
func RefreshAll(ctx context.Context, cacheManager Manager, cmdb provider.CmdbProvider, concurrentLimit int) error {
	cacheManager.Reset()

	if cacheManager.useBiz() {
		businesses, err := cmdb.ListBusinesses(ctx, cacheManager.GetBkTenantId())
		if err != nil {
			return errors.Wrap(err, "list businesses failed")
		}

		if concurrentLimit <= 0 {
			concurrentLimit = config.CmdbRefreshParallelism
		}

		// 单业务失败跳过并记录，不影响其他业务刷新
		wg := sync.WaitGroup{}
		limitChan := make(chan struct{}, concurrentLimit)
		for _, biz := range businesses {
			limitChan <- struct{}{}
			wg.Add(1)
			go func(bkBizId int) {
				defer func() {
					wg.Done()
					<-limitChan
				}()
				if err := cacheManager.RefreshByBiz(ctx, bkBizId); err != nil {
					if marker, ok := cacheManager.(interface{ markBizFailed(int) }); ok {
						marker.markBizFailed(bkBizId)
					}
					logging.Errorf("refresh %s cache by biz failed, biz: %d, error: %v", cacheManager.Type(), bkBizId, err)
				}
			}(biz.BkBizId)
		}
		wg.Wait()
	}

	if err := cacheManager.RefreshGlobal(ctx); err != nil {
		return errors.Wrapf(err, "refresh global %s cache failed", cacheManager.Type())
	}

	if err := cacheManager.CleanGlobal(ctx); err != nil {
		return errors.Wrapf(err, "clean global %s cache failed", cacheManager.Type())
	}
	return nil
}
