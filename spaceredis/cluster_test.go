// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package spaceredis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
)

// demoBkciMeta bkci空间：关联业务2、共享集群BCS-K8S-1、跨空间类型专属表
func demoBkciMeta(meta *fakeMeta) {
	demoBkccMeta(meta)
	meta.spaces = append(meta.spaces, models.Space{SpaceTypeId: models.SpaceTypeBKCI, SpaceId: "proj1"})
	meta.spaceResources = append(meta.spaceResources,
		models.SpaceResource{
			SpaceTypeId: models.SpaceTypeBKCI, SpaceId: "proj1",
			ResourceType: models.SpaceResourceTypeBKCC, ResourceId: strPtr("2"),
		},
		models.SpaceResource{
			SpaceTypeId: models.SpaceTypeBKCI, SpaceId: "proj1",
			ResourceType: models.SpaceResourceTypeBCS, ResourceId: strPtr("proj1"),
			DimensionValues: `[{"cluster_id":"BCS-K8S-1","cluster_type":"shared","namespace":["ns-a","ns-b"]}]`,
		},
	)
	meta.clusters = append(meta.clusters, models.BCSClusterInfo{
		ClusterID: "BCS-K8S-1", ProjectId: "proj1", Status: models.BcsClusterStatusRunning, K8sMetricDataID: 7001,
	})
	meta.dsResultTables = append(meta.dsResultTables, models.DataSourceResultTable{BkDataId: 7001, TableId: "k8s.cpu"})
	meta.resultTables = append(meta.resultTables,
		models.ResultTable{TableId: "k8s.cpu", SchemaType: models.ResultTableSchemaTypeFree, IsEnable: true},
		models.ResultTable{TableId: "bkci_1001_global", SchemaType: models.ResultTableSchemaTypeFixed, IsEnable: true},
	)
	meta.influxdbStorages = append(meta.influxdbStorages,
		models.InfluxdbStorage{TableID: "k8s.cpu"},
		models.InfluxdbStorage{TableID: "bkci_1001_global"},
	)
}

func TestPushBkciSpaceTableIds(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkciMeta(meta)

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCI, "proj1", false))
	var values map[string]map[string]interface{}
	require.NoError(t, jsonx.UnmarshalString(getRouterValue(t, store, "bkci__proj1"), &values))

	// 共享集群按命名空间展开过滤条件
	require.Contains(t, values, "k8s.cpu")
	clusterEntry, err := jsonx.MarshalString(values["k8s.cpu"])
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`{"filters":[{"bcs_cluster_id":"BCS-K8S-1","namespace":"ns-a"},{"bcs_cluster_id":"BCS-K8S-1","namespace":"ns-b"}]}`,
		clusterEntry,
	)

	// 关联业务仅开放主机系统表，携带业务过滤条件
	require.Contains(t, values, "system.cpu_summary")
	bizEntry, err := jsonx.MarshalString(values["system.cpu_summary"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[{"bk_biz_id":"2"}]}`, bizEntry)
	assert.NotContains(t, values, "2_custom.http")

	// 跨空间类型专属表携带项目过滤条件
	require.Contains(t, values, "bkci_1001_global")
	crossEntry, err := jsonx.MarshalString(values["bkci_1001_global"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[{"projectId":"proj1"}]}`, crossEntry)
}

func TestPushBksaasSpaceTableIds(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkciMeta(meta)
	meta.spaces = append(meta.spaces, models.Space{SpaceTypeId: models.SpaceTypeBKSAAS, SpaceId: "app1"})
	meta.spaceResources = append(meta.spaceResources, models.SpaceResource{
		SpaceTypeId: models.SpaceTypeBKSAAS, SpaceId: "app1",
		ResourceType: models.SpaceResourceTypeBKSAAS, ResourceId: strPtr("app1"),
		DimensionValues: `[{"cluster_id":"BCS-K8S-2","cluster_type":"single","namespace":null}]`,
	})
	meta.clusters = append(meta.clusters, models.BCSClusterInfo{
		ClusterID: "BCS-K8S-2", ProjectId: "app1", Status: models.BcsClusterStatusRunning, CustomMetricDataID: 7002,
	})
	meta.dataSources = append(meta.dataSources, models.DataSource{
		BkDataId: 8001, EtlConfig: models.ETLConfigTypeBkStandardV2TimeSeries,
		SpaceTypeId: models.SpaceTypeBKSAAS, SpaceUid: "bksaas__app1",
	})
	meta.spaceDataSources = append(meta.spaceDataSources, models.SpaceDataSource{
		SpaceTypeId: models.SpaceTypeBKSAAS, SpaceId: "app1", BkDataId: 8001,
	})
	meta.dsResultTables = append(meta.dsResultTables,
		models.DataSourceResultTable{BkDataId: 7002, TableId: "saas.custom"},
		models.DataSourceResultTable{BkDataId: 8001, TableId: "app1_custom.metrics"},
	)
	meta.resultTables = append(meta.resultTables,
		models.ResultTable{TableId: "saas.custom", SchemaType: models.ResultTableSchemaTypeFree, IsEnable: true},
		models.ResultTable{TableId: "app1_custom.metrics", SchemaType: models.ResultTableSchemaTypeFree, IsEnable: true},
	)
	meta.influxdbStorages = append(meta.influxdbStorages,
		models.InfluxdbStorage{TableID: "saas.custom"},
		models.InfluxdbStorage{TableID: "app1_custom.metrics"},
	)

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKSAAS, "app1", false))
	var values map[string]map[string]interface{}
	require.NoError(t, jsonx.UnmarshalString(getRouterValue(t, store, "bksaas__app1"), &values))

	// 独立集群无命名空间限制
	require.Contains(t, values, "saas.custom")
	clusterEntry, err := jsonx.MarshalString(values["saas.custom"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[{"bcs_cluster_id":"BCS-K8S-2","namespace":null}]}`, clusterEntry)

	// 空间直属数据源无过滤条件
	require.Contains(t, values, "app1_custom.metrics")
	otherEntry, err := jsonx.MarshalString(values["app1_custom.metrics"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[]}`, otherEntry)

	// bksaas 空间不可见跨空间类型的 bkci 专属表
	assert.NotContains(t, values, "bkci_1001_global")
}

func TestPushAllSpaceTableIds(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)

	require.NoError(t, pusher.PushAllSpaceTableIds(ctx, models.SpaceTypeBKCC, false))
	assert.NotEmpty(t, getRouterValue(t, store, "bkcc__2"))
	// 空间5没有归属数据源，但平台级数据源依然可见
	assert.NotEmpty(t, getRouterValue(t, store, "bkcc__5"))
}
