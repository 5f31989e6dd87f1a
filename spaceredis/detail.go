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
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// PushTableIdDetail 推送结果表的详情数据，tableIds为空时推送全部有存储链路的结果表
func (s *SpacePusher) PushTableIdDetail(ctx context.Context, tableIds []string, isPublish bool) error {
	logging.Infof("start to push table_id detail data, table_ids [%v]", tableIds)
	tableIds, err := s.refineTableIds(ctx, tableIds)
	if err != nil {
		return err
	}
	if len(tableIds) == 0 {
		logging.Infof("not found table id for detail")
		return nil
	}

	rtList, err := s.meta.ListResultTables(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return err
	}
	// 结果表对应的数据源
	tableIdDataIdMap, err := s.getResultTablesByDataIds(ctx, nil, tableIds)
	if err != nil {
		return err
	}
	// 指标字段
	tableIdFields, err := s.composeTableIdFields(ctx, tableIds)
	if err != nil {
		return err
	}
	measurementTypeMap, err := s.getMeasurementTypeByTableId(ctx, tableIds, tableIdDataIdMap)
	if err != nil {
		return err
	}
	tableIdClusterIdMap, err := s.getTableIdClusterId(ctx, tableIds)
	if err != nil {
		return err
	}
	// 存储链路信息
	influxdbStorageList, err := s.meta.ListInfluxdbStorages(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return err
	}
	influxdbStorageMap := make(map[string]*models.InfluxdbStorage)
	for i := range influxdbStorageList {
		influxdbStorageMap[influxdbStorageList[i].TableID] = &influxdbStorageList[i]
	}
	vmRecordList, err := s.meta.ListAccessVMRecords(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return err
	}
	vmRecordMap := make(map[string]*models.AccessVMRecord)
	for i := range vmRecordList {
		vmRecordMap[vmRecordList[i].ResultTableId] = &vmRecordList[i]
	}

	detailData := make(map[string]string, len(rtList))
	var changedTableIds []string
	for _, rt := range rtList {
		fields := tableIdFields[rt.TableId]
		if fields == nil {
			fields = []string{}
		}
		sort.Strings(fields)

		var dataLabel string
		if rt.DataLabel != nil {
			dataLabel = *rt.DataLabel
		}
		detail := map[string]interface{}{
			"fields":           fields,
			"measurement_type": measurementTypeMap[rt.TableId],
			"bcs_cluster_id":   tableIdClusterIdMap[rt.TableId],
			"data_label":       dataLabel,
			"bk_data_id":       tableIdDataIdMap[rt.TableId],
			"storage_id":       uint(0),
			"db":               "",
			"measurement":      "",
			"tags_key":         []string{},
			"vm_rt":            "",
		}
		if influxdbStorage := influxdbStorageMap[rt.TableId]; influxdbStorage != nil {
			detail["storage_id"] = influxdbStorage.StorageClusterID
			detail["db"] = influxdbStorage.Database
			detail["measurement"] = influxdbStorage.RealTableName
			detail["tags_key"] = influxdbStorage.PartitionTags()
		}
		if vmRecord := vmRecordMap[rt.TableId]; vmRecord != nil {
			detail["vm_rt"] = vmRecord.VmResultTableId
		}
		value, err := jsonx.MarshalString(detail)
		if err != nil {
			return errors.Wrapf(err, "marshal table [%s] detail failed", rt.TableId)
		}
		detailData[rt.TableId] = value
		changedTableIds = append(changedTableIds, rt.TableId)
	}
	if len(detailData) == 0 {
		return nil
	}

	detailKey := rediskey.ResultTableDetailKey(s.bkTenantId)
	if err := s.store.HMSet(ctx, detailKey, detailData); err != nil {
		return err
	}
	if err := s.store.Expire(ctx, detailKey, redis.DefaultExpireDuration); err != nil {
		return err
	}
	if isPublish {
		sort.Strings(changedTableIds)
		channel := rediskey.ResultTableDetailChannel(s.bkTenantId)
		if err := s.store.Publish(ctx, channel, strings.Join(changedTableIds, "\n")); err != nil {
			return err
		}
	}
	logging.Infof("push redis result_table_detail, count [%d]", len(detailData))
	return nil
}

// composeTableIdFields 组装结果表的指标字段
// 白名单模式保留全部指标字段，自定义时序按指标最后更新时间过滤
func (s *SpacePusher) composeTableIdFields(ctx context.Context, tableIds []string) (map[string][]string, error) {
	if len(tableIds) == 0 {
		return make(map[string][]string), nil
	}
	// 白名单模式的结果表
	optionList, err := s.meta.ListResultTableOptions(ctx, s.bkTenantId, tableIds, models.OptionEnableFieldBlackList)
	if err != nil {
		return nil, err
	}
	whiteTableIdSet := mapset.NewSet[string]()
	for _, option := range optionList {
		var enabled bool
		if err := jsonx.UnmarshalString(option.Value, &enabled); err != nil {
			logging.Warnf("table_id [%s] option [%s] value invalid: %s", option.TableId, option.Name, option.Value)
			continue
		}
		if !enabled {
			whiteTableIdSet.Add(option.TableId)
		}
	}
	// 指标类型的字段
	fieldList, err := s.meta.ListResultTableFields(ctx, s.bkTenantId, tableIds, models.ResultTableFieldTagMetric)
	if err != nil {
		return nil, err
	}
	tableIdFieldMap := make(map[string][]string)
	for _, field := range fieldList {
		if field.IsDisabled {
			continue
		}
		tableIdFieldMap[field.TableId] = append(tableIdFieldMap[field.TableId], field.FieldName)
	}

	// 自定义时序指标按有效期过滤，白名单模式不受影响
	var tsTableIds []string
	for _, tableId := range tableIds {
		if !whiteTableIdSet.Contains(tableId) {
			tsTableIds = append(tsTableIds, tableId)
		}
	}
	tsFieldMap, err := s.filterTsFields(ctx, tsTableIds)
	if err != nil {
		return nil, err
	}

	tableIdMetrics := make(map[string][]string, len(tableIds))
	for _, tableId := range tableIds {
		if fields, ok := tsFieldMap[tableId]; ok {
			tableIdMetrics[tableId] = fields
			continue
		}
		tableIdMetrics[tableId] = tableIdFieldMap[tableId]
	}
	for tableId, fields := range tableIdMetrics {
		tableIdMetrics[tableId] = slicex.RemoveDuplicate(fields)
	}
	return tableIdMetrics, nil
}

// filterTsFields 获取自定义时序结果表的有效指标
// 仅过滤掉历史废弃的指标，最后更新时间在有效期内的为有效数据
func (s *SpacePusher) filterTsFields(ctx context.Context, tableIds []string) (map[string][]string, error) {
	if len(tableIds) == 0 {
		return make(map[string][]string), nil
	}
	tsGroupList, err := s.meta.ListTimeSeriesGroups(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return nil, err
	}
	if len(tsGroupList) == 0 {
		return make(map[string][]string), nil
	}
	var groupIds []uint
	tableIdGroupIdMap := make(map[string]uint)
	for _, group := range tsGroupList {
		groupIds = append(groupIds, group.TimeSeriesGroupID)
		tableIdGroupIdMap[group.TableID] = group.TimeSeriesGroupID
	}

	beginTime := time.Now().UTC().Add(-time.Duration(config.GlobalTimeSeriesMetricExpiredSeconds) * time.Second)
	metricList, err := s.meta.ListTimeSeriesMetrics(ctx, groupIds, beginTime)
	if err != nil {
		return nil, err
	}
	groupIdFieldsMap := make(map[uint][]string)
	for _, metric := range metricList {
		groupIdFieldsMap[metric.GroupID] = append(groupIdFieldsMap[metric.GroupID], metric.FieldName)
	}

	tableIdFields := make(map[string][]string, len(tableIdGroupIdMap))
	for tableId, groupId := range tableIdGroupIdMap {
		if fields, ok := groupIdFieldsMap[groupId]; ok {
			tableIdFields[tableId] = fields
		} else {
			tableIdFields[tableId] = []string{}
		}
	}
	return tableIdFields, nil
}

// getTableIdClusterId 获取结果表对应的集群 ID，无关联集群时为空字符串
func (s *SpacePusher) getTableIdClusterId(ctx context.Context, tableIds []string) (map[string]string, error) {
	if len(tableIds) == 0 {
		return make(map[string]string), nil
	}
	dsrtList, err := s.meta.ListDataSourceResultTables(ctx, s.bkTenantId, nil, tableIds)
	if err != nil {
		return nil, err
	}
	if len(dsrtList) == 0 {
		return make(map[string]string), nil
	}
	// 集群数据源仅包含两类，集群内置和集群自定义
	clusterList, err := s.meta.ListBCSClusterInfo(ctx, s.bkTenantId, nil)
	if err != nil {
		return nil, err
	}
	dataIdClusterIdMap := make(map[uint]string)
	for _, cluster := range clusterList {
		if cluster.K8sMetricDataID != 0 {
			dataIdClusterIdMap[cluster.K8sMetricDataID] = cluster.ClusterID
		}
		if cluster.CustomMetricDataID != 0 {
			dataIdClusterIdMap[cluster.CustomMetricDataID] = cluster.ClusterID
		}
	}
	tableIdClusterIdMap := make(map[string]string)
	for _, dsrt := range dsrtList {
		tableIdClusterIdMap[dsrt.TableId] = dataIdClusterIdMap[dsrt.BkDataId]
	}
	return tableIdClusterIdMap, nil
}
