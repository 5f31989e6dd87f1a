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
	"time"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// fakeMeta 测试用元数据提供方，按内存数据过滤
type fakeMeta struct {
	spaces           []models.Space
	spaceResources   []models.SpaceResource
	spaceDataSources []models.SpaceDataSource
	dataSources      []models.DataSource
	dsResultTables   []models.DataSourceResultTable
	resultTables     []models.ResultTable
	fields           []models.ResultTableField
	options          []models.ResultTableOption
	tsGroups         []models.TimeSeriesGroup
	tsMetrics        []models.TimeSeriesMetric
	influxdbStorages []models.InfluxdbStorage
	vmRecords        []models.AccessVMRecord
	clusters         []models.BCSClusterInfo
}

func (f *fakeMeta) ListSpaces(ctx context.Context, bkTenantId, spaceType string) ([]models.Space, error) {
	var result []models.Space
	for _, sp := range f.spaces {
		if spaceType != "" && sp.SpaceTypeId != spaceType {
			continue
		}
		result = append(result, sp)
	}
	return result, nil
}

func (f *fakeMeta) ListSpaceResources(ctx context.Context, bkTenantId, spaceType, spaceId, resourceType string) ([]models.SpaceResource, error) {
	var result []models.SpaceResource
	for _, sr := range f.spaceResources {
		if sr.SpaceTypeId != spaceType || sr.SpaceId != spaceId {
			continue
		}
		if resourceType != "" && sr.ResourceType != resourceType {
			continue
		}
		result = append(result, sr)
	}
	return result, nil
}

func (f *fakeMeta) ListSpaceDataSources(ctx context.Context, bkTenantId, spaceType, spaceId string, fromAuthorization *bool) ([]models.SpaceDataSource, error) {
	var result []models.SpaceDataSource
	for _, spds := range f.spaceDataSources {
		if spds.SpaceTypeId != spaceType || spds.SpaceId != spaceId {
			continue
		}
		if fromAuthorization != nil && spds.FromAuthorization != *fromAuthorization {
			continue
		}
		result = append(result, spds)
	}
	return result, nil
}

func (f *fakeMeta) ListDataSources(ctx context.Context, bkTenantId string, bkDataIds []uint) ([]models.DataSource, error) {
	var result []models.DataSource
	for _, ds := range f.dataSources {
		if len(bkDataIds) != 0 && !slicex.IsExistItem(bkDataIds, ds.BkDataId) {
			continue
		}
		result = append(result, ds)
	}
	return result, nil
}

func (f *fakeMeta) ListDataSourceResultTables(ctx context.Context, bkTenantId string, bkDataIds []uint, tableIds []string) ([]models.DataSourceResultTable, error) {
	var result []models.DataSourceResultTable
	for _, dsrt := range f.dsResultTables {
		if len(bkDataIds) != 0 && !slicex.IsExistItem(bkDataIds, dsrt.BkDataId) {
			continue
		}
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, dsrt.TableId) {
			continue
		}
		result = append(result, dsrt)
	}
	return result, nil
}

func (f *fakeMeta) ListResultTables(ctx context.Context, bkTenantId string, tableIds []string) ([]models.ResultTable, error) {
	var result []models.ResultTable
	for _, rt := range f.resultTables {
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, rt.TableId) {
			continue
		}
		result = append(result, rt)
	}
	return result, nil
}

func (f *fakeMeta) ListResultTableFields(ctx context.Context, bkTenantId string, tableIds []string, tag string) ([]models.ResultTableField, error) {
	var result []models.ResultTableField
	for _, field := range f.fields {
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, field.TableId) {
			continue
		}
		if tag != "" && field.Tag != tag {
			continue
		}
		result = append(result, field)
	}
	return result, nil
}

func (f *fakeMeta) ListResultTableOptions(ctx context.Context, bkTenantId string, tableIds []string, name string) ([]models.ResultTableOption, error) {
	var result []models.ResultTableOption
	for _, option := range f.options {
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, option.TableId) {
			continue
		}
		if name != "" && option.Name != name {
			continue
		}
		result = append(result, option)
	}
	return result, nil
}

func (f *fakeMeta) ListTimeSeriesGroups(ctx context.Context, bkTenantId string, tableIds []string) ([]models.TimeSeriesGroup, error) {
	var result []models.TimeSeriesGroup
	for _, group := range f.tsGroups {
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, group.TableID) {
			continue
		}
		result = append(result, group)
	}
	return result, nil
}

func (f *fakeMeta) ListTimeSeriesMetrics(ctx context.Context, groupIds []uint, since time.Time) ([]models.TimeSeriesMetric, error) {
	var result []models.TimeSeriesMetric
	for _, metric := range f.tsMetrics {
		if len(groupIds) != 0 && !slicex.IsExistItem(groupIds, metric.GroupID) {
			continue
		}
		if metric.LastModifyTime.Before(since) {
			continue
		}
		result = append(result, metric)
	}
	return result, nil
}

func (f *fakeMeta) ListInfluxdbStorages(ctx context.Context, bkTenantId string, tableIds []string) ([]models.InfluxdbStorage, error) {
	var result []models.InfluxdbStorage
	for _, influxdbStorage := range f.influxdbStorages {
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, influxdbStorage.TableID) {
			continue
		}
		result = append(result, influxdbStorage)
	}
	return result, nil
}

func (f *fakeMeta) ListAccessVMRecords(ctx context.Context, bkTenantId string, tableIds []string) ([]models.AccessVMRecord, error) {
	var result []models.AccessVMRecord
	for _, vmRecord := range f.vmRecords {
		if len(tableIds) != 0 && !slicex.IsExistItem(tableIds, vmRecord.ResultTableId) {
			continue
		}
		result = append(result, vmRecord)
	}
	return result, nil
}

func (f *fakeMeta) GetPlatformDataIds(ctx context.Context, bkTenantId, spaceType string) (map[uint]string, error) {
	result := make(map[uint]string)
	for _, ds := range f.dataSources {
		if !ds.IsPlatformDataId {
			continue
		}
		if spaceType != "" && spaceType != models.SpaceTypeBKCC &&
			ds.SpaceTypeId != spaceType && ds.SpaceTypeId != "all" {
			continue
		}
		result[ds.BkDataId] = ds.SpaceUid
	}
	return result, nil
}

func (f *fakeMeta) ListBCSClusterInfo(ctx context.Context, bkTenantId string, clusterIds []string) ([]models.BCSClusterInfo, error) {
	var result []models.BCSClusterInfo
	for _, cluster := range f.clusters {
		if cluster.Status != models.BcsClusterStatusRunning {
			continue
		}
		if len(clusterIds) != 0 && !slicex.IsExistItem(clusterIds, cluster.ClusterID) {
			continue
		}
		result = append(result, cluster)
	}
	return result, nil
}

func strPtr(s string) *string {
	return &s
}

func newTestPusher(t *testing.T) (*SpacePusher, *fakeMeta, *redis.Instance) {
	server := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: server.Addr()})
	store := redis.NewInstanceWithClient(client)
	meta := &fakeMeta{}
	return NewSpacePusher("system", store, meta), meta, store
}

// demoBkccMeta 两个业务数据源：主机采集表(归属bkcc__2)和平台级自定义时序表(归属bkcc__3)
func demoBkccMeta(meta *fakeMeta) {
	meta.spaces = []models.Space{
		{SpaceTypeId: models.SpaceTypeBKCC, SpaceId: "2"},
		{SpaceTypeId: models.SpaceTypeBKCC, SpaceId: "5"},
	}
	meta.dataSources = []models.DataSource{
		{BkDataId: 1001, EtlConfig: "bk_system_basereport", SpaceTypeId: models.SpaceTypeBKCC, SpaceUid: "bkcc__2"},
		{
			BkDataId: 1002, EtlConfig: models.ETLConfigTypeBkStandardV2TimeSeries,
			SpaceTypeId: models.SpaceTypeBKCC, SpaceUid: "bkcc__3", IsPlatformDataId: true,
		},
	}
	meta.spaceDataSources = []models.SpaceDataSource{
		{SpaceTypeId: models.SpaceTypeBKCC, SpaceId: "2", BkDataId: 1001},
	}
	meta.dsResultTables = []models.DataSourceResultTable{
		{BkDataId: 1001, TableId: "system.cpu_summary"},
		{BkDataId: 1002, TableId: "2_custom.http"},
	}
	meta.resultTables = []models.ResultTable{
		{TableId: "system.cpu_summary", SchemaType: models.ResultTableSchemaTypeFixed, IsEnable: true},
		{TableId: "2_custom.http", SchemaType: models.ResultTableSchemaTypeFree, IsEnable: true},
	}
	meta.influxdbStorages = []models.InfluxdbStorage{
		{TableID: "system.cpu_summary", StorageClusterID: 3, Database: "system", RealTableName: "cpu_summary"},
		{TableID: "2_custom.http", StorageClusterID: 3, Database: "2_custom", RealTableName: "http"},
	}
}

func getRouterValue(t *testing.T, store *redis.Instance, spaceUid string) string {
	t.Helper()
	value, err := store.HGet(context.Background(), rediskey.SpaceToResultTableKey("system"), spaceUid)
	require.NoError(t, err)
	return value
}

func TestPushBkccSpaceTableIdsStrict(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	value := getRouterValue(t, store, "bkcc__2")
	assert.JSONEq(
		t,
		`{"system.cpu_summary":{"filters":[{"bk_biz_id":"2"}]},"2_custom.http":{"filters":[{"bk_biz_id":"2"}]}}`,
		value,
	)
}

func TestPushBkccSpaceTableIdsLax(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)

	oldRestrict := config.GlobalIsRestrictDsBelongSpace
	config.GlobalIsRestrictDsBelongSpace = false
	defer func() { config.GlobalIsRestrictDsBelongSpace = oldRestrict }()

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	value := getRouterValue(t, store, "bkcc__2")
	assert.JSONEq(
		t,
		`{"system.cpu_summary":{"filters":[]},"2_custom.http":{"filters":[{"bk_biz_id":"2"}]}}`,
		value,
	)
}

func TestPushSpaceTableIdsIdempotent(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	first := getRouterValue(t, store, "bkcc__2")
	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	second := getRouterValue(t, store, "bkcc__2")
	assert.Equal(t, first, second)
}

func TestPushBkccSpaceDbmAllowList(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)
	// dbm 表通过平台级数据源对全部 bkcc 空间可见
	meta.dataSources = append(meta.dataSources, models.DataSource{
		BkDataId: 1003, EtlConfig: "bk_standard", SpaceTypeId: models.SpaceTypeBKCC,
		SpaceUid: "bkcc__5", IsPlatformDataId: true,
	})
	meta.dsResultTables = append(meta.dsResultTables, models.DataSourceResultTable{BkDataId: 1003, TableId: "dbm_1001_mysql"})
	meta.resultTables = append(meta.resultTables, models.ResultTable{
		TableId: "dbm_1001_mysql", SchemaType: models.ResultTableSchemaTypeFixed, IsEnable: true,
	})
	meta.influxdbStorages = append(meta.influxdbStorages, models.InfluxdbStorage{TableID: "dbm_1001_mysql"})

	oldAllowList := config.GlobalAccessDbmRtSpaceUid
	config.GlobalAccessDbmRtSpaceUid = []string{"bkcc__5"}
	defer func() { config.GlobalAccessDbmRtSpaceUid = oldAllowList }()

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	var values map[string]map[string]interface{}
	require.NoError(t, jsonx.UnmarshalString(getRouterValue(t, store, "bkcc__2"), &values))
	assert.NotContains(t, values, "dbm_1001_mysql")

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "5", false))
	require.NoError(t, jsonx.UnmarshalString(getRouterValue(t, store, "bkcc__5"), &values))
	require.Contains(t, values, "dbm_1001_mysql")
	assert.Empty(t, values["dbm_1001_mysql"]["filters"])
}

func TestPushBkccSpaceCrossTypeExclusion(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)
	meta.dataSources = append(meta.dataSources, models.DataSource{
		BkDataId: 1004, EtlConfig: "bk_standard", SpaceTypeId: models.SpaceTypeBKCC,
		SpaceUid: "bkcc__3", IsPlatformDataId: true,
	})
	meta.dsResultTables = append(meta.dsResultTables, models.DataSourceResultTable{BkDataId: 1004, TableId: "bkci_1001_global"})
	meta.resultTables = append(meta.resultTables, models.ResultTable{
		TableId: "bkci_1001_global", SchemaType: models.ResultTableSchemaTypeFixed, IsEnable: true,
	})
	meta.influxdbStorages = append(meta.influxdbStorages, models.InfluxdbStorage{TableID: "bkci_1001_global"})

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	var values map[string]map[string]interface{}
	require.NoError(t, jsonx.UnmarshalString(getRouterValue(t, store, "bkcc__2"), &values))
	assert.NotContains(t, values, "bkci_1001_global")
}

func TestRouterCompleteness(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoBkccMeta(meta)
	// 没有存储链路的结果表不应出现在路由中
	meta.dsResultTables = append(meta.dsResultTables, models.DataSourceResultTable{BkDataId: 1001, TableId: "system.no_storage"})
	meta.resultTables = append(meta.resultTables, models.ResultTable{
		TableId: "system.no_storage", SchemaType: models.ResultTableSchemaTypeFixed, IsEnable: true,
	})

	require.NoError(t, pusher.PushSpaceTableIds(ctx, models.SpaceTypeBKCC, "2", false))
	var values map[string]map[string]interface{}
	require.NoError(t, jsonx.UnmarshalString(getRouterValue(t, store, "bkcc__2"), &values))
	assert.NotContains(t, values, "system.no_storage")
	assert.Contains(t, values, "system.cpu_summary")
}

func TestGetMeasurementType(t *testing.T) {
	cases := []struct {
		name                  string
		schemaType            string
		isSplitMeasurement    bool
		isDisableMetricCutter bool
		etlConfig             string
		expected              string
	}{
		{"fixed", models.ResultTableSchemaTypeFixed, false, false, "", models.MeasurementBkTraditional},
		{"free split", models.ResultTableSchemaTypeFree, true, false, "", models.MeasurementBkSplit},
		{"free exporter etl", models.ResultTableSchemaTypeFree, false, false, models.ETLConfigTypeBkExporter, models.MeasurementBkExporter},
		{"free v2 cutter on", models.ResultTableSchemaTypeFree, false, false, models.ETLConfigTypeBkStandardV2TimeSeries, models.MeasurementBkExporter},
		{"free v2 cutter off", models.ResultTableSchemaTypeFree, false, true, models.ETLConfigTypeBkStandardV2TimeSeries, models.MeasurementBkStandardV2TimeSeries},
		{"unknown schema", "", false, false, "", models.MeasurementBkTraditional},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, getMeasurementType(c.schemaType, c.isSplitMeasurement, c.isDisableMetricCutter, c.etlConfig))
		})
	}
}
