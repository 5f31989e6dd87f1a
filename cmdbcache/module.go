// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package cmdbcache

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
)

// ModuleCacheManager 模块缓存管理器，同时维护服务模板到模块的映射
type ModuleCacheManager struct {
	*BaseCacheManager
	cmdb provider.CmdbProvider

	// 服务模板映射跨业务聚合，全业务刷新完成后统一写入
	templateModules map[int][]int
	templateLock    sync.Mutex
}

// NewModuleCacheManager 创建模块缓存管理器
func NewModuleCacheManager(bkTenantId string, store *redis.Instance, cmdb provider.CmdbProvider) *ModuleCacheManager {
	manager := &ModuleCacheManager{
		BaseCacheManager: NewBaseCacheManager(bkTenantId, store),
		cmdb:             cmdb,
		templateModules:  make(map[int][]int),
	}
	manager.initUpdatedFieldSet(rediskey.ComponentModule, rediskey.ComponentServiceTemplate)
	return manager
}

// Type 缓存类型
func (m *ModuleCacheManager) Type() string {
	return "module"
}

// Reset 重置刷新状态
func (m *ModuleCacheManager) Reset() {
	m.BaseCacheManager.Reset()
	m.templateLock.Lock()
	m.templateModules = make(map[int][]int)
	m.templateLock.Unlock()
}

// RefreshByBiz 刷新业务下模块缓存
func (m *ModuleCacheManager) RefreshByBiz(ctx context.Context, bkBizId int) error {
	modules, err := m.cmdb.ListModules(ctx, m.GetBkTenantId(), bkBizId)
	if err != nil {
		return errors.Wrapf(err, "list modules failed, biz: %d", bkBizId)
	}

	data := make(map[string]string, len(modules))
	for _, module := range modules {
		value, err := jsonx.MarshalString(module)
		if err != nil {
			return errors.Wrapf(err, "marshal module [%d] failed", module.BkModuleId)
		}
		data[strconv.Itoa(module.BkModuleId)] = value

		if module.ServiceTemplateId > 0 {
			m.templateLock.Lock()
			m.templateModules[module.ServiceTemplateId] = append(m.templateModules[module.ServiceTemplateId], module.BkModuleId)
			m.templateLock.Unlock()
		}
	}
	return m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentModule), data)
}

// RefreshGlobal 写入服务模板到模块的映射
func (m *ModuleCacheManager) RefreshGlobal(ctx context.Context) error {
	m.templateLock.Lock()
	data := make(map[string]string, len(m.templateModules))
	for templateId, moduleIds := range m.templateModules {
		sort.Ints(moduleIds)
		value, err := jsonx.MarshalString(moduleIds)
		if err != nil {
			m.templateLock.Unlock()
			return errors.Wrapf(err, "marshal service template [%d] failed", templateId)
		}
		data[strconv.Itoa(templateId)] = value
	}
	m.templateLock.Unlock()

	return m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentServiceTemplate), data)
}

// CleanGlobal 清理已失效的字段并续期
func (m *ModuleCacheManager) CleanGlobal(ctx context.Context) error {
	moduleKey := m.GetCacheKey(rediskey.ComponentModule)
	moduleBizOf := func(field, value string) (int, bool) {
		module := decodeCacheValue[provider.Module](moduleKey, field, value)
		if module == nil {
			return 0, false
		}
		return module.BkBizId, true
	}
	if err := m.DeleteMissingHashMapFields(ctx, moduleKey, moduleBizOf); err != nil {
		return err
	}
	if err := m.UpdateExpire(ctx, moduleKey); err != nil {
		return err
	}

	templateKey := m.GetCacheKey(rediskey.ComponentServiceTemplate)
	if err := m.DeleteMissingHashMapFields(ctx, templateKey, nil); err != nil {
		return err
	}
	return m.UpdateExpire(ctx, templateKey)
}

// Get 读取单个模块，不存在时返回nil
func (m *ModuleCacheManager) Get(ctx context.Context, bkModuleId int) (*provider.Module, error) {
	key := m.GetCacheKey(rediskey.ComponentModule)
	value, err := m.Store.HGet(ctx, key, strconv.Itoa(bkModuleId))
	if err != nil {
		return nil, err
	}
	return decodeCacheValue[provider.Module](key, strconv.Itoa(bkModuleId), value), nil
}

// MGet 批量读取模块，单次HMGET
func (m *ModuleCacheManager) MGet(ctx context.Context, bkModuleIds []int) (map[int]*provider.Module, error) {
	if len(bkModuleIds) == 0 {
		return map[int]*provider.Module{}, nil
	}
	key := m.GetCacheKey(rediskey.ComponentModule)
	fields := make([]string, 0, len(bkModuleIds))
	for _, bkModuleId := range bkModuleIds {
		fields = append(fields, strconv.Itoa(bkModuleId))
	}
	values, err := m.Store.HMGet(ctx, key, fields...)
	if err != nil {
		return nil, err
	}

	result := make(map[int]*provider.Module)
	for i, value := range values {
		if module := decodeCacheValue[provider.Module](key, fields[i], value); module != nil {
			result[bkModuleIds[i]] = module
		}
	}
	return result, nil
}

// GetTemplateModules 读取服务模板关联的模块id列表
func (m *ModuleCacheManager) GetTemplateModules(ctx context.Context, templateId int) ([]int, error) {
	key := m.GetCacheKey(rediskey.ComponentServiceTemplate)
	value, err := m.Store.HGet(ctx, key, strconv.Itoa(templateId))
	if err != nil {
		return nil, err
	}
	if moduleIds := decodeCacheValue[[]int](key, strconv.Itoa(templateId), value); moduleIds != nil {
		return *moduleIds, nil
	}
	return nil, nil
}
