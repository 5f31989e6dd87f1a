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

// SetCacheManager 集群缓存管理器，同时维护集群模板到集群的映射
type SetCacheManager struct {
	*BaseCacheManager
	cmdb provider.CmdbProvider

	templateSets map[int][]int
	templateLock sync.Mutex
}

// NewSetCacheManager 创建集群缓存管理器
func NewSetCacheManager(bkTenantId string, store *redis.Instance, cmdb provider.CmdbProvider) *SetCacheManager {
	manager := &SetCacheManager{
		BaseCacheManager: NewBaseCacheManager(bkTenantId, store),
		cmdb:             cmdb,
		templateSets:     make(map[int][]int),
	}
	manager.initUpdatedFieldSet(rediskey.ComponentSet, rediskey.ComponentSetTemplate)
	return manager
}

// Type 缓存类型
func (m *SetCacheManager) Type() string {
	return "set"
}

// Reset 重置刷新状态
func (m *SetCacheManager) Reset() {
	m.BaseCacheManager.Reset()
	m.templateLock.Lock()
	m.templateSets = make(map[int][]int)
	m.templateLock.Unlock()
}

// RefreshByBiz 刷新业务下集群缓存
func (m *SetCacheManager) RefreshByBiz(ctx context.Context, bkBizId int) error {
	sets, err := m.cmdb.ListSets(ctx, m.GetBkTenantId(), bkBizId)
	if err != nil {
		return errors.Wrapf(err, "list sets failed, biz: %d", bkBizId)
	}

	data := make(map[string]string, len(sets))
	for _, set := range sets {
		value, err := jsonx.MarshalString(set)
		if err != nil {
			return errors.Wrapf(err, "marshal set [%d] failed", set.BkSetId)
		}
		data[strconv.Itoa(set.BkSetId)] = value

		if set.SetTemplateId > 0 {
			m.templateLock.Lock()
			m.templateSets[set.SetTemplateId] = append(m.templateSets[set.SetTemplateId], set.BkSetId)
			m.templateLock.Unlock()
		}
	}
	return m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentSet), data)
}

// RefreshGlobal 写入集群模板到集群的映射
func (m *SetCacheManager) RefreshGlobal(ctx context.Context) error {
	m.templateLock.Lock()
	data := make(map[string]string, len(m.templateSets))
	for templateId, setIds := range m.templateSets {
		sort.Ints(setIds)
		value, err := jsonx.MarshalString(setIds)
		if err != nil {
			m.templateLock.Unlock()
			return errors.Wrapf(err, "marshal set template [%d] failed", templateId)
		}
		data[strconv.Itoa(templateId)] = value
	}
	m.templateLock.Unlock()

	return m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentSetTemplate), data)
}

// CleanGlobal 清理已失效的字段并续期
func (m *SetCacheManager) CleanGlobal(ctx context.Context) error {
	setKey := m.GetCacheKey(rediskey.ComponentSet)
	setBizOf := func(field, value string) (int, bool) {
		set := decodeCacheValue[provider.Set](setKey, field, value)
		if set == nil {
			return 0, false
		}
		return set.BkBizId, true
	}
	if err := m.DeleteMissingHashMapFields(ctx, setKey, setBizOf); err != nil {
		return err
	}
	if err := m.UpdateExpire(ctx, setKey); err != nil {
		return err
	}

	templateKey := m.GetCacheKey(rediskey.ComponentSetTemplate)
	if err := m.DeleteMissingHashMapFields(ctx, templateKey, nil); err != nil {
		return err
	}
	return m.UpdateExpire(ctx, templateKey)
}

// Get 读取单个集群，不存在时返回nil
func (m *SetCacheManager) Get(ctx context.Context, bkSetId int) (*provider.Set, error) {
	key := m.GetCacheKey(rediskey.ComponentSet)
	value, err := m.Store.HGet(ctx, key, strconv.Itoa(bkSetId))
	if err != nil {
		return nil, err
	}
	return decodeCacheValue[provider.Set](key, strconv.Itoa(bkSetId), value), nil
}

// MGet 批量读取集群，单次HMGET
func (m *SetCacheManager) MGet(ctx context.Context, bkSetIds []int) (map[int]*provider.Set, error) {
	if len(bkSetIds) == 0 {
		return map[int]*provider.Set{}, nil
	}
	key := m.GetCacheKey(rediskey.ComponentSet)
	fields := make([]string, 0, len(bkSetIds))
	for _, bkSetId := range bkSetIds {
		fields = append(fields, strconv.Itoa(bkSetId))
	}
	values, err := m.Store.HMGet(ctx, key, fields...)
	if err != nil {
		return nil, err
	}

	result := make(map[int]*provider.Set)
	for i, value := range values {
		if set := decodeCacheValue[provider.Set](key, fields[i], value); set != nil {
			result[bkSetIds[i]] = set
		}
	}
	return result, nil
}

// GetTemplateSets 读取集群模板关联的集群id列表
func (m *SetCacheManager) GetTemplateSets(ctx context.Context, templateId int) ([]int, error) {
	key := m.GetCacheKey(rediskey.ComponentSetTemplate)
	value, err := m.Store.HGet(ctx, key, strconv.Itoa(templateId))
	if err != nil {
		return nil, err
	}
	if setIds := decodeCacheValue[[]int](key, strconv.Itoa(templateId), value); setIds != nil {
		return *setIds, nil
	}
	return nil, nil
}
