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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
)

func demoTopoTree(bkBizId int) *provider.TopoNode {
	return &provider.TopoNode{
		BkObjId: "biz", BkInstId: bkBizId, BkInstName: "biz",
		Children: []*provider.TopoNode{
			{
				BkObjId: "set", BkInstId: 10, BkInstName: "set-10",
				Children: []*provider.TopoNode{
					{BkObjId: "module", BkInstId: 100, BkInstName: "module-100"},
					{BkObjId: "module", BkInstId: 101, BkInstName: "module-101"},
				},
			},
		},
	}
}

func TestHostCacheDualKeying(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	cmdb := newFakeCmdb()
	cmdb.businesses = []provider.Business{{BkBizId: 2, BkBizName: "blueking"}}
	cmdb.topo[2] = demoTopoTree(2)
	cmdb.sets[2] = []provider.Set{{BkSetId: 10, BkBizId: 2, BkSetName: "set-10", BkWorldId: "world-1"}}
	cmdb.hosts[2] = []provider.Host{
		{
			BkHostId: 1001, BkBizId: 2, BkHostInnerip: "127.0.0.1", BkCloudId: 0,
			BkAgentId: "agent-1001", BkSetIds: []int{10}, BkModuleIds: []int{100, 101},
		},
		// 缺失全部ip的主机应当被丢弃
		{BkHostId: 1002, BkBizId: 2, BkCloudId: 0},
	}

	manager := NewHostAndTopoCacheManager("system", store, cmdb)
	require.NoError(t, RefreshAll(ctx, manager, cmdb, 2))

	// 双写字段指向同一份数据
	byField, err := manager.GetHost(ctx, "127.0.0.1|0")
	require.NoError(t, err)
	require.NotNil(t, byField)
	byId, err := manager.GetHost(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, byId)
	assert.Equal(t, *byField, *byId)

	assert.Equal(t, []string{"world-1"}, byField.BkWorldIds)
	assert.Contains(t, byField.TopoLinks, "module|100")
	assert.Contains(t, byField.TopoLinks, "module|101")

	// 缺失ip的主机不入缓存
	dropped, err := manager.GetHost(ctx, "1002")
	require.NoError(t, err)
	assert.Nil(t, dropped)

	// host_id / agent_id / host_ip 反查缓存
	hostField, err := store.HGet(ctx, manager.GetCacheKey("host_id"), "1001")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1|0", hostField)

	hostId, err := store.HGet(ctx, manager.GetCacheKey("agent_id"), "agent-1001")
	require.NoError(t, err)
	assert.Equal(t, "1001", hostId)

	ipValue, err := store.HGet(ctx, manager.GetCacheKey("host_ip"), "127.0.0.1")
	require.NoError(t, err)
	assert.JSONEq(t, `["127.0.0.1|0"]`, ipValue)

	// 拓扑节点携带到根的链路
	node, err := manager.GetTopoNode(ctx, "module|100")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, []string{"set|10"}, node.Parents)
}

func TestHostCacheDiffDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	cmdb := newFakeCmdb()
	cmdb.businesses = []provider.Business{{BkBizId: 2}, {BkBizId: 3}}
	cmdb.hosts[2] = []provider.Host{{BkHostId: 1001, BkBizId: 2, BkHostInnerip: "10.0.0.1", BkCloudId: 0}}
	cmdb.hosts[3] = []provider.Host{{BkHostId: 2001, BkBizId: 3, BkHostInnerip: "10.0.0.2", BkCloudId: 0}}

	manager := NewHostAndTopoCacheManager("system", store, cmdb)
	require.NoError(t, RefreshAll(ctx, manager, cmdb, 2))

	host, err := manager.GetHost(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, host)

	// 主机下架后再次刷新，字段被删除
	cmdb.hosts[2] = nil
	require.NoError(t, RefreshAll(ctx, manager, cmdb, 2))
	host, err = manager.GetHost(ctx, "1001")
	require.NoError(t, err)
	assert.Nil(t, host)

	// 业务刷新失败时保留该业务的存量字段
	cmdb.hosts[3] = nil
	cmdb.failedBiz[3] = struct{}{}
	require.NoError(t, RefreshAll(ctx, manager, cmdb, 2))
	host, err = manager.GetHost(ctx, "2001")
	require.NoError(t, err)
	require.NotNil(t, host)
	assert.Equal(t, 3, host.BkBizId)

	// 失败业务恢复后正常清理
	delete(cmdb.failedBiz, 3)
	require.NoError(t, RefreshAll(ctx, manager, cmdb, 2))
	host, err = manager.GetHost(ctx, "2001")
	require.NoError(t, err)
	assert.Nil(t, host)
}
