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
	"strconv"

	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
)

// BusinessCacheManager 业务缓存管理器
type BusinessCacheManager struct {
	*BaseCacheManager
	cmdb provider.CmdbProvider
}

// NewBusinessCacheManager 创建业务缓存管理器
func NewBusinessCacheManager(bkTenantId string, store *redis.Instance, cmdb provider.CmdbProvider) *BusinessCacheManager {
	manager := &BusinessCacheManager{
		BaseCacheManager: NewBaseCacheManager(bkTenantId, store),
		cmdb:             cmdb,
	}
	manager.initUpdatedFieldSet(rediskey.ComponentBusiness)
	return manager
}

// Type 缓存类型
func (m *BusinessCacheManager) Type() string {
	return "business"
}

// useBiz 业务缓存一次性全量刷新
func (m *BusinessCacheManager) useBiz() bool {
	return false
}

// RefreshGlobal 全量刷新业务缓存
func (m *BusinessCacheManager) RefreshGlobal(ctx context.Context) error {
	businesses, err := m.cmdb.ListBusinesses(ctx, m.GetBkTenantId())
	if err != nil {
		return errors.Wrap(err, "list businesses failed")
	}

	data := make(map[string]string, len(businesses))
	for _, business := range businesses {
		value, err := jsonx.MarshalString(business)
		if err != nil {
			return errors.Wrapf(err, "marshal business [%d] failed", business.BkBizId)
		}
		data[strconv.Itoa(business.BkBizId)] = value
	}

	key := m.GetCacheKey(rediskey.ComponentBusiness)
	if err := m.UpdateHashMapCache(ctx, key, data); err != nil {
		return err
	}
	return m.UpdateExpire(ctx, key)
}

// CleanGlobal 清理已失效的业务字段
func (m *BusinessCacheManager) CleanGlobal(ctx context.Context) error {
	key := m.GetCacheKey(rediskey.ComponentBusiness)
	if err := m.DeleteMissingHashMapFields(ctx, key, nil); err != nil {
		return err
	}
	return m.UpdateExpire(ctx, key)
}

// Get 读取单个业务，不存在时返回nil
func (m *BusinessCacheManager) Get(ctx context.Context, bkBizId int) (*provider.Business, error) {
	value, err := m.Store.HGet(ctx, m.GetCacheKey(rediskey.ComponentBusiness), strconv.Itoa(bkBizId))
	if err != nil {
		return nil, err
	}
	return decodeCacheValue[provider.Business](m.GetCacheKey(rediskey.ComponentBusiness), strconv.Itoa(bkBizId), value), nil
}

// MGet 批量读取业务，单次HMGET
func (m *BusinessCacheManager) MGet(ctx context.Context, bkBizIds []int) (map[int]*provider.Business, error) {
	if len(bkBizIds) == 0 {
		return map[int]*provider.Business{}, nil
	}
	key := m.GetCacheKey(rediskey.ComponentBusiness)
	fields := make([]string, 0, len(bkBizIds))
	for _, bkBizId := range bkBizIds {
		fields = append(fields, strconv.Itoa(bkBizId))
	}
	values, err := m.Store.HMGet(ctx, key, fields...)
	if err != nil {
		return nil, err
	}

	result := make(map[int]*provider.Business)
	for i, value := range values {
		if business := decodeCacheValue[provider.Business](key, fields[i], value); business != nil {
			result[bkBizIds[i]] = business
		}
	}
	return result, nil
}
