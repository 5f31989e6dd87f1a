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

	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/metrics"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
)

// ServiceInstanceInfo 服务实例缓存值，ip与云区域id从主机缓存回填
type ServiceInstanceInfo struct {
	provider.ServiceInstance

	IP        string `json:"ip"`
	BkCloudId int    `json:"bk_cloud_id"`
}

// ServiceInstanceCacheManager 服务实例缓存管理器
// 维护service_instance与host_to_service_instance_id两个hash
type ServiceInstanceCacheManager struct {
	*BaseCacheManager
	cmdb provider.CmdbProvider
}

// NewServiceInstanceCacheManager 创建服务实例缓存管理器
func NewServiceInstanceCacheManager(bkTenantId string, store *redis.Instance, cmdb provider.CmdbProvider) *ServiceInstanceCacheManager {
	manager := &ServiceInstanceCacheManager{
		BaseCacheManager: NewBaseCacheManager(bkTenantId, store),
		cmdb:             cmdb,
	}
	manager.initUpdatedFieldSet(rediskey.ComponentServiceInstance, rediskey.ComponentHostToServiceInstanceID)
	return manager
}

// Type 缓存类型
func (m *ServiceInstanceCacheManager) Type() string {
	return "service_instance"
}

// RefreshByBiz 刷新业务下服务实例缓存
func (m *ServiceInstanceCacheManager) RefreshByBiz(ctx context.Context, bkBizId int) error {
	instances, err := m.cmdb.ListServiceInstances(ctx, m.GetBkTenantId(), bkBizId)
	if err != nil {
		return errors.Wrapf(err, "list service instances failed, biz: %d", bkBizId)
	}

	// 批量读取主机缓存用于回填ip与云区域
	hostIdSet := make(map[int]struct{})
	for _, instance := range instances {
		hostIdSet[instance.BkHostId] = struct{}{}
	}
	hostFields := make([]string, 0, len(hostIdSet))
	for bkHostId := range hostIdSet {
		hostFields = append(hostFields, strconv.Itoa(bkHostId))
	}
	hostKey := m.GetCacheKey(rediskey.ComponentHost)
	hostValues, err := m.Store.HMGet(ctx, hostKey, hostFields...)
	if err != nil {
		return err
	}
	hosts := make(map[int]*HostInfo, len(hostFields))
	for i, value := range hostValues {
		if host := decodeCacheValue[HostInfo](hostKey, hostFields[i], value); host != nil {
			hosts[host.BkHostId] = host
		}
	}

	instanceData := make(map[string]string, len(instances))
	hostInstanceIds := make(map[int][]int)
	for _, instance := range instances {
		info := ServiceInstanceInfo{ServiceInstance: instance}
		host := hosts[instance.BkHostId]
		if host != nil {
			info.IP = host.IP()
			info.BkCloudId = host.BkCloudId
		}

		value, err := jsonx.MarshalString(info)
		if err != nil {
			return errors.Wrapf(err, "marshal service instance [%d] failed", instance.ServiceInstanceId)
		}
		instanceData[strconv.Itoa(instance.ServiceInstanceId)] = value

		// 主机缓存缺失时仅跳过主机到实例的映射
		if host == nil {
			metrics.EntriesDropped("service_instance_host_missing")
			continue
		}
		hostInstanceIds[instance.BkHostId] = append(hostInstanceIds[instance.BkHostId], instance.ServiceInstanceId)
	}

	hostInstanceData := make(map[string]string, len(hostInstanceIds))
	for bkHostId, instanceIds := range hostInstanceIds {
		sort.Ints(instanceIds)
		value, err := jsonx.MarshalString(instanceIds)
		if err != nil {
			return errors.Wrapf(err, "marshal host service instances [%d] failed", bkHostId)
		}
		hostInstanceData[strconv.Itoa(bkHostId)] = value
	}

	if err := m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentServiceInstance), instanceData); err != nil {
		return err
	}
	return m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentHostToServiceInstanceID), hostInstanceData)
}

// CleanGlobal 清理已失效的字段并续期
func (m *ServiceInstanceCacheManager) CleanGlobal(ctx context.Context) error {
	instanceKey := m.GetCacheKey(rediskey.ComponentServiceInstance)
	instanceBizOf := func(field, value string) (int, bool) {
		instance := decodeCacheValue[ServiceInstanceInfo](instanceKey, field, value)
		if instance == nil {
			return 0, false
		}
		return instance.BkBizId, true
	}
	if err := m.DeleteMissingHashMapFields(ctx, instanceKey, instanceBizOf); err != nil {
		return err
	}
	if err := m.UpdateExpire(ctx, instanceKey); err != nil {
		return err
	}

	hostInstanceKey := m.GetCacheKey(rediskey.ComponentHostToServiceInstanceID)
	if err := m.DeleteMissingHashMapFields(ctx, hostInstanceKey, nil); err != nil {
		return err
	}
	return m.UpdateExpire(ctx, hostInstanceKey)
}

// Get 读取单个服务实例，不存在时返回nil
func (m *ServiceInstanceCacheManager) Get(ctx context.Context, serviceInstanceId int) (*ServiceInstanceInfo, error) {
	key := m.GetCacheKey(rediskey.ComponentServiceInstance)
	value, err := m.Store.HGet(ctx, key, strconv.Itoa(serviceInstanceId))
	if err != nil {
		return nil, err
	}
	return decodeCacheValue[ServiceInstanceInfo](key, strconv.Itoa(serviceInstanceId), value), nil
}

// MGet 批量读取服务实例，单次HMGET
func (m *ServiceInstanceCacheManager) MGet(ctx context.Context, serviceInstanceIds []int) (map[int]*ServiceInstanceInfo, error) {
	if len(serviceInstanceIds) == 0 {
		return map[int]*ServiceInstanceInfo{}, nil
	}
	key := m.GetCacheKey(rediskey.ComponentServiceInstance)
	fields := make([]string, 0, len(serviceInstanceIds))
	for _, serviceInstanceId := range serviceInstanceIds {
		fields = append(fields, strconv.Itoa(serviceInstanceId))
	}
	values, err := m.Store.HMGet(ctx, key, fields...)
	if err != nil {
		return nil, err
	}

	result := make(map[int]*ServiceInstanceInfo)
	for i, value := range values {
		if instance := decodeCacheValue[ServiceInstanceInfo](key, fields[i], value); instance != nil {
			result[serviceInstanceIds[i]] = instance
		}
	}
	return result, nil
}

// GetHostServiceInstanceIds 读取主机关联的服务实例id列表
func (m *ServiceInstanceCacheManager) GetHostServiceInstanceIds(ctx context.Context, bkHostId int) ([]int, error) {
	key := m.GetCacheKey(rediskey.ComponentHostToServiceInstanceID)
	value, err := m.Store.HGet(ctx, key, strconv.Itoa(bkHostId))
	if err != nil {
		return nil, err
	}
	if instanceIds := decodeCacheValue[[]int](key, strconv.Itoa(bkHostId), value); instanceIds != nil {
		return *instanceIds, nil
	}
	return nil, nil
}
