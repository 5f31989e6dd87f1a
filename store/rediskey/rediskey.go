// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package rediskey 统一管理缓存key的拼接规则，默认租户沿用旧版key布局
package rediskey

import (
	"fmt"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
)

// KeyPrefix 缓存key固定前缀
const KeyPrefix = "bkmonitor.ee"

// CmdbComponent cmdb 缓存实体类型
type CmdbComponent string

const (
	ComponentBusiness                CmdbComponent = "business"
	ComponentHost                    CmdbComponent = "host"
	ComponentHostID                  CmdbComponent = "host_id"
	ComponentHostIP                  CmdbComponent = "host_ip"
	ComponentAgentID                 CmdbComponent = "agent_id"
	ComponentModule                  CmdbComponent = "module"
	ComponentSet                     CmdbComponent = "set"
	ComponentServiceInstance         CmdbComponent = "service_instance"
	ComponentHostToServiceInstanceID CmdbComponent = "host_to_service_instance_id"
	ComponentServiceTemplate         CmdbComponent = "service_template"
	ComponentSetTemplate             CmdbComponent = "set_template"
	ComponentTopo                    CmdbComponent = "topo"
)

// CmdbComponents 全部 cmdb 缓存实体类型
var CmdbComponents = []CmdbComponent{
	ComponentBusiness,
	ComponentHost,
	ComponentHostID,
	ComponentHostIP,
	ComponentAgentID,
	ComponentModule,
	ComponentSet,
	ComponentServiceInstance,
	ComponentHostToServiceInstanceID,
	ComponentServiceTemplate,
	ComponentSetTemplate,
	ComponentTopo,
}

// TenantPrefix 租户前缀，默认租户不携带租户id，兼容旧的缓存key
func TenantPrefix(bkTenantId string) string {
	if bkTenantId == config.DefaultTenantId {
		return KeyPrefix
	}
	return fmt.Sprintf("%s.%s", bkTenantId, KeyPrefix)
}

// CmdbCacheKey cmdb 实体缓存key
func CmdbCacheKey(bkTenantId string, component CmdbComponent) string {
	return fmt.Sprintf("%s.cache.cmdb.%s", TenantPrefix(bkTenantId), component)
}

// SpaceToResultTableKey 空间路由hash key
func SpaceToResultTableKey(bkTenantId string) string {
	return fmt.Sprintf("%s.cache.space_to_result_table", TenantPrefix(bkTenantId))
}

// DataLabelToResultTableKey 数据标签路由hash key
func DataLabelToResultTableKey(bkTenantId string) string {
	return fmt.Sprintf("%s.cache.data_label_to_result_table", TenantPrefix(bkTenantId))
}

// ResultTableDetailKey 结果表详情hash key
func ResultTableDetailKey(bkTenantId string) string {
	return fmt.Sprintf("%s.cache.result_table_detail", TenantPrefix(bkTenantId))
}

// SpaceToResultTableChannel 空间路由变更通知channel
func SpaceToResultTableChannel(bkTenantId string) string {
	return fmt.Sprintf("%s.channel.space_to_result_table", TenantPrefix(bkTenantId))
}

// DataLabelToResultTableChannel 数据标签路由变更通知channel
func DataLabelToResultTableChannel(bkTenantId string) string {
	return fmt.Sprintf("%s.channel.data_label_to_result_table", TenantPrefix(bkTenantId))
}

// ResultTableDetailChannel 结果表详情变更通知channel
func ResultTableDetailChannel(bkTenantId string) string {
	return fmt.Sprintf("%s.channel.result_table_detail", TenantPrefix(bkTenantId))
}

// JobLockKey 定时任务分布式锁key，任务不区分租户
func JobLockKey(jobName string) string {
	return fmt.Sprintf("%s.lock.%s", KeyPrefix, jobName)
}
