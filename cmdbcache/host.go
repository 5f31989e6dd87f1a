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
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/metrics"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// HostInfo 主机缓存值，在cmdb主机信息上补充拓扑链路与机房id
type HostInfo struct {
	provider.Host

	BkWorldIds []string                        `json:"bk_world_ids"`
	TopoLinks  map[string][]*provider.TopoNode `json:"topo_link"`
}

// TopoNodeInfo 拓扑节点缓存值，parents为节点到业务根的链路（不含业务节点）
type TopoNodeInfo struct {
	BkObjId    string   `json:"bk_obj_id"`
	BkInstId   int      `json:"bk_inst_id"`
	BkInstName string   `json:"bk_inst_name"`
	Parents    []string `json:"parents"`
}

// HostAndTopoCacheManager 主机及拓扑缓存管理器
// 维护host/host_id/host_ip/agent_id/topo五个hash
type HostAndTopoCacheManager struct {
	*BaseCacheManager
	cmdb provider.CmdbProvider

	// host_ip缓存按ip聚合，同ip可能分布在多业务多云区域，全业务刷新完成后统一写入
	hostIpMap  map[string][]string
	hostIpLock sync.Mutex
}

// NewHostAndTopoCacheManager 创建主机及拓扑缓存管理器
func NewHostAndTopoCacheManager(bkTenantId string, store *redis.Instance, cmdb provider.CmdbProvider) *HostAndTopoCacheManager {
	manager := &HostAndTopoCacheManager{
		BaseCacheManager: NewBaseCacheManager(bkTenantId, store),
		cmdb:             cmdb,
		hostIpMap:        make(map[string][]string),
	}
	manager.initUpdatedFieldSet(
		rediskey.ComponentHost,
		rediskey.ComponentHostID,
		rediskey.ComponentHostIP,
		rediskey.ComponentAgentID,
		rediskey.ComponentTopo,
	)
	return manager
}

// Type 缓存类型
func (m *HostAndTopoCacheManager) Type() string {
	return "host_topo"
}

// Reset 重置刷新状态
func (m *HostAndTopoCacheManager) Reset() {
	m.BaseCacheManager.Reset()
	m.hostIpLock.Lock()
	m.hostIpMap = make(map[string][]string)
	m.hostIpLock.Unlock()
}

// RefreshByBiz 刷新业务下主机与拓扑缓存
func (m *HostAndTopoCacheManager) RefreshByBiz(ctx context.Context, bkBizId int) error {
	bkTenantId := m.GetBkTenantId()

	hosts, err := m.cmdb.ListHostsByBiz(ctx, bkTenantId, bkBizId)
	if err != nil {
		return errors.Wrapf(err, "list hosts failed, biz: %d", bkBizId)
	}
	topoTree, err := m.cmdb.GetTopoTree(ctx, bkTenantId, bkBizId)
	if err != nil {
		return errors.Wrapf(err, "get topo tree failed, biz: %d", bkBizId)
	}
	sets, err := m.cmdb.ListSets(ctx, bkTenantId, bkBizId)
	if err != nil {
		return errors.Wrapf(err, "list sets failed, biz: %d", bkBizId)
	}

	topoLinks := topoTree.ConvertToTopoLink()
	setWorldIds := make(map[int]string, len(sets))
	for _, set := range sets {
		if set.BkWorldId != "" {
			setWorldIds[set.BkSetId] = set.BkWorldId
		}
	}

	hostData := make(map[string]string)
	hostIdData := make(map[string]string)
	agentIdData := make(map[string]string)
	for i := range hosts {
		host := hosts[i]
		if host.BkHostInnerip == "" && host.BkHostInneripV6 == "" {
			metrics.EntriesDropped("host_missing_ip")
			continue
		}

		info := HostInfo{
			Host:       host,
			BkWorldIds: []string{},
			TopoLinks:  make(map[string][]*provider.TopoNode),
		}
		for _, bkSetId := range host.BkSetIds {
			if worldId, ok := setWorldIds[bkSetId]; ok {
				info.BkWorldIds = append(info.BkWorldIds, worldId)
			}
		}
		info.BkWorldIds = slicex.RemoveDuplicate(info.BkWorldIds)
		for _, bkModuleId := range host.BkModuleIds {
			moduleField := fmt.Sprintf("module|%d", bkModuleId)
			if link, ok := topoLinks[moduleField]; ok {
				info.TopoLinks[moduleField] = link
			}
		}

		value, err := jsonx.MarshalString(info)
		if err != nil {
			return errors.Wrapf(err, "marshal host [%d] failed", host.BkHostId)
		}

		// 主机缓存双写："{ip}|{cloud_id}" 与 host_id 指向同一份数据
		hostField := host.HostField()
		hostIdField := strconv.Itoa(host.BkHostId)
		hostData[hostField] = value
		hostData[hostIdField] = value
		hostIdData[hostIdField] = hostField

		if host.BkAgentId != "" {
			agentIdData[host.BkAgentId] = hostIdField
		}

		if ip := host.IP(); ip != "" {
			m.hostIpLock.Lock()
			m.hostIpMap[ip] = append(m.hostIpMap[ip], hostField)
			m.hostIpLock.Unlock()
		}
	}

	// 拓扑缓存覆盖树上全部节点，业务节点不入缓存也不进入parents链路
	topoData := make(map[string]string)
	var walkTopo func(node *provider.TopoNode, parents []string) error
	walkTopo = func(node *provider.TopoNode, parents []string) error {
		childParents := parents
		if node.BkObjId != "biz" {
			value, err := jsonx.MarshalString(TopoNodeInfo{
				BkObjId:    node.BkObjId,
				BkInstId:   node.BkInstId,
				BkInstName: node.BkInstName,
				Parents:    parents,
			})
			if err != nil {
				return errors.Wrapf(err, "marshal topo node [%s] failed", node.Field())
			}
			topoData[node.Field()] = value
			childParents = append([]string{node.Field()}, parents...)
		}
		for _, child := range node.Children {
			if err := walkTopo(child, childParents); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walkTopo(topoTree, nil); err != nil {
		return err
	}

	for key, data := range map[string]map[string]string{
		m.GetCacheKey(rediskey.ComponentHost):    hostData,
		m.GetCacheKey(rediskey.ComponentHostID):  hostIdData,
		m.GetCacheKey(rediskey.ComponentAgentID): agentIdData,
		m.GetCacheKey(rediskey.ComponentTopo):    topoData,
	} {
		if err := m.UpdateHashMapCache(ctx, key, data); err != nil {
			return err
		}
	}
	return nil
}

// RefreshGlobal 全业务刷新完成后写入host_ip缓存
func (m *HostAndTopoCacheManager) RefreshGlobal(ctx context.Context) error {
	m.hostIpLock.Lock()
	data := make(map[string]string, len(m.hostIpMap))
	for ip, hostFields := range m.hostIpMap {
		hostFields = slicex.RemoveDuplicate(hostFields)
		sort.Strings(hostFields)
		value, err := jsonx.MarshalString(hostFields)
		if err != nil {
			m.hostIpLock.Unlock()
			return errors.Wrapf(err, "marshal host ip [%s] failed", ip)
		}
		data[ip] = value
	}
	m.hostIpLock.Unlock()

	return m.UpdateHashMapCache(ctx, m.GetCacheKey(rediskey.ComponentHostIP), data)
}

// CleanGlobal 清理各hash中已失效的字段并续期
func (m *HostAndTopoCacheManager) CleanGlobal(ctx context.Context) error {
	// 主机缓存值携带业务id，失败业务的字段可以精确保留
	hostBizOf := func(field, value string) (int, bool) {
		host := decodeCacheValue[HostInfo](m.GetCacheKey(rediskey.ComponentHost), field, value)
		if host == nil {
			return 0, false
		}
		return host.BkBizId, true
	}

	keyBizOf := map[string]func(field, value string) (int, bool){
		m.GetCacheKey(rediskey.ComponentHost):    hostBizOf,
		m.GetCacheKey(rediskey.ComponentHostID):  nil,
		m.GetCacheKey(rediskey.ComponentHostIP):  nil,
		m.GetCacheKey(rediskey.ComponentAgentID): nil,
		m.GetCacheKey(rediskey.ComponentTopo):    nil,
	}
	for key, bizOf := range keyBizOf {
		if err := m.DeleteMissingHashMapFields(ctx, key, bizOf); err != nil {
			return err
		}
		if err := m.UpdateExpire(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// GetHost 按 "{ip}|{cloud_id}" 或 host_id 读取主机
func (m *HostAndTopoCacheManager) GetHost(ctx context.Context, field string) (*HostInfo, error) {
	key := m.GetCacheKey(rediskey.ComponentHost)
	value, err := m.Store.HGet(ctx, key, field)
	if err != nil {
		return nil, err
	}
	return decodeCacheValue[HostInfo](key, field, value), nil
}

// MGetHosts 批量读取主机，单次HMGET
func (m *HostAndTopoCacheManager) MGetHosts(ctx context.Context, fields []string) (map[string]*HostInfo, error) {
	if len(fields) == 0 {
		return map[string]*HostInfo{}, nil
	}
	key := m.GetCacheKey(rediskey.ComponentHost)
	values, err := m.Store.HMGet(ctx, key, fields...)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*HostInfo)
	for i, value := range values {
		if host := decodeCacheValue[HostInfo](key, fields[i], value); host != nil {
			result[fields[i]] = host
		}
	}
	return result, nil
}

// GetTopoNode 按 "{bk_obj_id}|{bk_inst_id}" 读取拓扑节点
func (m *HostAndTopoCacheManager) GetTopoNode(ctx context.Context, field string) (*TopoNodeInfo, error) {
	key := m.GetCacheKey(rediskey.ComponentTopo)
	value, err := m.Store.HGet(ctx, key, field)
	if err != nil {
		return nil, err
	}
	return decodeCacheValue[TopoNodeInfo](key, field, value), nil
}
