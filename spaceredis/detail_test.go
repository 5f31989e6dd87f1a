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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
)

// demoDetailMeta 自定义时序表custom.svc，指标a最近有更新，指标b已超过有效期
func demoDetailMeta(meta *fakeMeta) {
	meta.dataSources = []models.DataSource{
		{BkDataId: 9001, EtlConfig: models.ETLConfigTypeBkStandardV2TimeSeries, SpaceTypeId: models.SpaceTypeBKCC, SpaceUid: "bkcc__2"},
	}
	meta.dsResultTables = []models.DataSourceResultTable{
		{BkDataId: 9001, TableId: "custom.svc"},
	}
	meta.resultTables = []models.ResultTable{
		{TableId: "custom.svc", SchemaType: models.ResultTableSchemaTypeFree, DataLabel: strPtr("svc"), IsEnable: true},
	}
	meta.fields = []models.ResultTableField{
		{TableId: "custom.svc", FieldName: "a", Tag: models.ResultTableFieldTagMetric},
		{TableId: "custom.svc", FieldName: "b", Tag: models.ResultTableFieldTagMetric},
	}
	meta.tsGroups = []models.TimeSeriesGroup{
		{TimeSeriesGroupID: 501, BkDataID: 9001, TableID: "custom.svc"},
	}
	meta.tsMetrics = []models.TimeSeriesMetric{
		{GroupID: 501, FieldName: "a", LastModifyTime: time.Now().UTC()},
		{GroupID: 501, FieldName: "b", LastModifyTime: time.Now().UTC().Add(-60 * 24 * time.Hour)},
	}
	meta.influxdbStorages = []models.InfluxdbStorage{
		{TableID: "custom.svc", StorageClusterID: 7, Database: "custom", RealTableName: "svc", PartitionTag: "bk_biz_id"},
	}
	meta.vmRecords = []models.AccessVMRecord{
		{ResultTableId: "custom.svc", VmResultTableId: "vm_custom_svc", VmClusterId: 1},
	}
}

type tableDetail struct {
	Fields          []string `json:"fields"`
	MeasurementType string   `json:"measurement_type"`
	BcsClusterId    string   `json:"bcs_cluster_id"`
	DataLabel       string   `json:"data_label"`
	BkDataId        uint     `json:"bk_data_id"`
	StorageId       uint     `json:"storage_id"`
	Db              string   `json:"db"`
	Measurement     string   `json:"measurement"`
	TagsKey         []string `json:"tags_key"`
	VmRt            string   `json:"vm_rt"`
}

func getTableDetail(t *testing.T, pusher *SpacePusher, tableId string) tableDetail {
	t.Helper()
	value, err := pusher.store.HGet(context.Background(), rediskey.ResultTableDetailKey("system"), tableId)
	require.NoError(t, err)
	require.NotEmpty(t, value)
	var detail tableDetail
	require.NoError(t, jsonx.UnmarshalString(value, &detail))
	return detail
}

func TestPushTableIdDetailBlackListMode(t *testing.T) {
	ctx := context.Background()
	pusher, meta, _ := newTestPusher(t)
	demoDetailMeta(meta)

	require.NoError(t, pusher.PushTableIdDetail(ctx, nil, false))
	detail := getTableDetail(t, pusher, "custom.svc")

	// 超过有效期的指标被过滤
	assert.Equal(t, []string{"a"}, detail.Fields)
	assert.Equal(t, models.MeasurementBkExporter, detail.MeasurementType)
	assert.Equal(t, "svc", detail.DataLabel)
	assert.Equal(t, uint(9001), detail.BkDataId)
	assert.Equal(t, uint(7), detail.StorageId)
	assert.Equal(t, "custom", detail.Db)
	assert.Equal(t, "svc", detail.Measurement)
	assert.Equal(t, []string{"bk_biz_id"}, detail.TagsKey)
	assert.Equal(t, "vm_custom_svc", detail.VmRt)
}

func TestPushTableIdDetailWhiteListMode(t *testing.T) {
	ctx := context.Background()
	pusher, meta, _ := newTestPusher(t)
	demoDetailMeta(meta)
	meta.options = []models.ResultTableOption{
		{TableId: "custom.svc", Name: models.OptionEnableFieldBlackList, Value: "false"},
	}

	require.NoError(t, pusher.PushTableIdDetail(ctx, nil, false))
	detail := getTableDetail(t, pusher, "custom.svc")

	// 白名单模式保留全部指标字段，不受有效期限制
	assert.Equal(t, []string{"a", "b"}, detail.Fields)
}

func TestPushTableIdDetailClusterId(t *testing.T) {
	ctx := context.Background()
	pusher, meta, _ := newTestPusher(t)
	demoDetailMeta(meta)
	meta.clusters = []models.BCSClusterInfo{
		{ClusterID: "BCS-K8S-9", Status: models.BcsClusterStatusRunning, K8sMetricDataID: 9001},
	}

	require.NoError(t, pusher.PushTableIdDetail(ctx, []string{"custom.svc"}, false))
	detail := getTableDetail(t, pusher, "custom.svc")
	assert.Equal(t, "BCS-K8S-9", detail.BcsClusterId)
}

func TestPushDataLabelTableIds(t *testing.T) {
	ctx := context.Background()
	pusher, meta, store := newTestPusher(t)
	demoDetailMeta(meta)
	// 无数据标签的结果表不进入标签路由
	meta.dsResultTables = append(meta.dsResultTables, models.DataSourceResultTable{BkDataId: 9001, TableId: "custom.other"})
	meta.resultTables = append(meta.resultTables, models.ResultTable{
		TableId: "custom.other", SchemaType: models.ResultTableSchemaTypeFree, IsEnable: true,
	})
	meta.influxdbStorages = append(meta.influxdbStorages, models.InfluxdbStorage{TableID: "custom.other"})

	require.NoError(t, pusher.PushDataLabelTableIds(ctx, nil, nil, false))
	value, err := store.HGet(ctx, rediskey.DataLabelToResultTableKey("system"), "svc")
	require.NoError(t, err)
	assert.JSONEq(t, `["custom.svc"]`, value)

	fields, err := store.HKeys(ctx, rediskey.DataLabelToResultTableKey("system"))
	require.NoError(t, err)
	assert.Equal(t, []string{"svc"}, fields)
}
