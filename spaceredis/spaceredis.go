// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package spaceredis 空间到结果表路由的计算与推送
package spaceredis

import (
	"context"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// SpacePusher 空间路由推送器，路由数据仅由该组件写入
type SpacePusher struct {
	bkTenantId string
	store      *redis.Instance
	meta       provider.MetadataProvider
}

// NewSpacePusher 创建空间路由推送器
func NewSpacePusher(bkTenantId string, store *redis.Instance, meta provider.MetadataProvider) *SpacePusher {
	return &SpacePusher{
		bkTenantId: bkTenantId,
		store:      store,
		meta:       meta,
	}
}

// dataIdOptions 数据源过滤选项
type dataIdOptions struct {
	// includePlatformDataId 是否包含平台级数据源
	includePlatformDataId bool
	// fromAuthorization 按授权来源过滤，nil表示不过滤
	fromAuthorization *bool
}

// PushSpaceTableIds 推送空间及对应的结果表和过滤条件
func (s *SpacePusher) PushSpaceTableIds(ctx context.Context, spaceType, spaceId string, isPublish bool) error {
	logging.Infof("start to push space table_id data, space_type [%s], space_id [%s]", spaceType, spaceId)
	var values map[string]map[string]interface{}
	var err error
	switch spaceType {
	case models.SpaceTypeBKCC:
		values, err = s.composeData(ctx, spaceType, spaceId, nil, nil, dataIdOptions{includePlatformDataId: true})
	case models.SpaceTypeBKCI:
		// 需要处理关联业务+集群+空间级+其它(在当前空间下创建的插件、自定义上报等)+跨空间类型
		values, err = s.composeBkciTableIds(ctx, spaceType, spaceId)
	case models.SpaceTypeBKSAAS:
		values, err = s.composeBksaasTableIds(ctx, spaceType, spaceId)
	default:
		return errors.Errorf("invalid space type: %s", spaceType)
	}
	if err != nil {
		return err
	}

	spaceUid := models.BuildSpaceUid(spaceType, spaceId)
	if len(values) != 0 {
		valuesStr, err := jsonx.MarshalString(values)
		if err != nil {
			return errors.Wrapf(err, "push space [%s] marshal values failed", spaceUid)
		}
		routerKey := rediskey.SpaceToResultTableKey(s.bkTenantId)
		if err := s.store.HSet(ctx, routerKey, spaceUid, valuesStr); err != nil {
			return errors.Wrapf(err, "push space [%s] failed", spaceUid)
		}
		if err := s.store.Expire(ctx, routerKey, redis.DefaultExpireDuration); err != nil {
			return err
		}
	}
	if isPublish {
		if err := s.store.Publish(ctx, rediskey.SpaceToResultTableChannel(s.bkTenantId), spaceUid); err != nil {
			return err
		}
	}
	logging.Infof("push space table_id data successfully, space_type [%s], space_id [%s]", spaceType, spaceId)
	return nil
}

// GetSpaceTableIdDataId 获取空间下的结果表和数据源信息
func (s *SpacePusher) GetSpaceTableIdDataId(
	ctx context.Context, spaceType, spaceId string, tableIds []string, excludeDataIds []uint, opts dataIdOptions,
) (map[string]uint, error) {
	excludeDataIdSet := slicex.List2Set(excludeDataIds)
	// 指定结果表时，直接查询结果表对应的数据源
	if len(tableIds) != 0 {
		dsrtList, err := s.meta.ListDataSourceResultTables(ctx, s.bkTenantId, nil, tableIds)
		if err != nil {
			return nil, err
		}
		dataMap := make(map[string]uint)
		for _, dsrt := range dsrtList {
			if excludeDataIdSet.Contains(dsrt.BkDataId) {
				continue
			}
			dataMap[dsrt.TableId] = dsrt.BkDataId
		}
		return dataMap, nil
	}

	// 否则，查询空间下的所有数据源，再过滤对应的结果表
	spdsList, err := s.meta.ListSpaceDataSources(ctx, s.bkTenantId, spaceType, spaceId, opts.fromAuthorization)
	if err != nil {
		return nil, err
	}
	dataIdSet := mapset.NewSet[uint]()
	for _, spds := range spdsList {
		dataIdSet.Add(spds.BkDataId)
	}
	// 包含平台级的数据源
	if opts.includePlatformDataId {
		platformDataIds, err := s.meta.GetPlatformDataIds(ctx, s.bkTenantId, spaceType)
		if err != nil {
			return nil, err
		}
		for dataId := range platformDataIds {
			dataIdSet.Add(dataId)
		}
	}
	dataIdSet = dataIdSet.Difference(excludeDataIdSet)
	dataIdList := slicex.Set2List(dataIdSet)
	if len(dataIdList) == 0 {
		return map[string]uint{}, nil
	}
	dsrtList, err := s.meta.ListDataSourceResultTables(ctx, s.bkTenantId, dataIdList, nil)
	if err != nil {
		return nil, err
	}
	dataMap := make(map[string]uint)
	for _, dsrt := range dsrtList {
		dataMap[dsrt.TableId] = dsrt.BkDataId
	}
	return dataMap, nil
}

// refineTableIds 提取写入到influxdb或vm的结果表
func (s *SpacePusher) refineTableIds(ctx context.Context, tableIds []string) ([]string, error) {
	influxdbStorageList, err := s.meta.ListInfluxdbStorages(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return nil, err
	}
	vmRecordList, err := s.meta.ListAccessVMRecords(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return nil, err
	}
	var refined []string
	for _, influxdbStorage := range influxdbStorageList {
		refined = append(refined, influxdbStorage.TableID)
	}
	for _, vmRecord := range vmRecordList {
		refined = append(refined, vmRecord.ResultTableId)
	}
	refined = slicex.RemoveDuplicate(refined)
	sort.Strings(refined)
	return refined, nil
}

// composeData 组装空间下的结果表及过滤条件
// defaultFilters非空时直接作为每张表的过滤条件
func (s *SpacePusher) composeData(
	ctx context.Context, spaceType, spaceId string, tableIds []string,
	defaultFilters []map[string]interface{}, opts dataIdOptions,
) (map[string]map[string]interface{}, error) {
	tableIdDataId, err := s.GetSpaceTableIdDataId(ctx, spaceType, spaceId, tableIds, nil, opts)
	if err != nil {
		return nil, err
	}
	valueData := make(map[string]map[string]interface{})
	if len(tableIdDataId) == 0 {
		logging.Warnf("space_type [%s], space_id [%s] not found table_id and data_id", spaceType, spaceId)
		return valueData, nil
	}
	// 仅保留写入 influxdb 或 vm 的结果表
	refinedTableIds, err := s.refineTableIds(ctx, lo.Keys(tableIdDataId))
	if err != nil {
		return nil, err
	}
	tableIdDataIdMap := make(map[string]uint)
	var dataIdList []uint
	for _, tableId := range refinedTableIds {
		dataId := tableIdDataId[tableId]
		tableIdDataIdMap[tableId] = dataId
		dataIdList = append(dataIdList, dataId)
	}
	if len(dataIdList) == 0 {
		return valueData, nil
	}
	dsList, err := s.meta.ListDataSources(ctx, s.bkTenantId, slicex.RemoveDuplicate(dataIdList))
	if err != nil {
		return nil, err
	}
	dataIdDetail := make(map[uint]*models.DataSource)
	for i := range dsList {
		dataIdDetail[dsList[i].BkDataId] = &dsList[i]
	}
	// 获取结果表对应的类型
	measurementTypeMap, err := s.getMeasurementTypeByTableId(ctx, refinedTableIds, tableIdDataIdMap)
	if err != nil {
		return nil, err
	}
	// 获取空间归属(非授权)的数据源 ID
	fromAuthorization := false
	spdsList, err := s.meta.ListSpaceDataSources(ctx, s.bkTenantId, spaceType, spaceId, &fromAuthorization)
	if err != nil {
		return nil, err
	}
	spaceDataIdSet := mapset.NewSet[uint]()
	for _, spds := range spdsList {
		spaceDataIdSet.Add(spds.BkDataId)
	}

	spaceUid := models.BuildSpaceUid(spaceType, spaceId)
	for _, tid := range refinedTableIds {
		// NOTE: 特殊逻辑，忽略跨空间类型的 bkci 的结果表
		if strings.HasPrefix(tid, models.Bkci1001TableIdPrefix) {
			continue
		}
		// NOTE: 特殊逻辑，dbm 的结果表按空间白名单开放，且过滤条件为空
		if strings.HasPrefix(tid, models.Dbm1001TableIdPrefix) {
			if !slicex.IsExistItem(config.GlobalAccessDbmRtSpaceUid, spaceUid) {
				continue
			}
			valueData[tid] = map[string]interface{}{"filters": []interface{}{}}
			continue
		}
		measurementType, ok := measurementTypeMap[tid]
		if !ok {
			logging.Errorf("table_id [%s] not find measurement type", tid)
			continue
		}
		dataId, ok := tableIdDataIdMap[tid]
		if !ok {
			logging.Errorf("table_id [%s] not found data_id", tid)
			continue
		}
		detail := dataIdDetail[dataId]
		isExistSpace := spaceDataIdSet.Contains(dataId)
		// 拼装过滤条件, 如果有指定，则按照指定数据设置过滤条件
		if len(defaultFilters) != 0 {
			valueData[tid] = map[string]interface{}{"filters": defaultFilters}
			continue
		}
		filters := make([]map[string]interface{}, 0)
		if s.isNeedFilterForBkcc(measurementType, spaceUid, detail, isExistSpace) {
			filters = append(filters, map[string]interface{}{"bk_biz_id": spaceId})
		}
		valueData[tid] = map[string]interface{}{"filters": filters}
	}
	return valueData, nil
}

// isNeedFilterForBkcc 针对业务类型空间判断是否需要添加过滤条件
func (s *SpacePusher) isNeedFilterForBkcc(
	measurementType, spaceUid string, dataSource *models.DataSource, isExistSpace bool,
) bool {
	if dataSource == nil {
		return true
	}

	// 为防止查询范围放大，先功能开关控制，针对归属到具体空间的数据源，不需要添加过滤条件
	if !config.GlobalIsRestrictDsBelongSpace && dataSource.SpaceUid == spaceUid {
		return false
	}

	// 如果不是自定义时序或exporter，则不需要关注类似的情况，必须增加过滤条件
	tsMeasurementTypes := []string{
		models.MeasurementBkSplit, models.MeasurementBkStandardV2TimeSeries, models.MeasurementBkExporter,
	}
	if dataSource.EtlConfig != models.ETLConfigTypeBkStandardV2TimeSeries &&
		!slicex.IsExistItem(tsMeasurementTypes, measurementType) {
		return true
	}
	// 对自定义插件的处理，兼容黑白名单对类型的更改
	// 黑名单时，会更改为单指标单表
	if measurementType == models.MeasurementBkExporter ||
		(dataSource.EtlConfig == models.ETLConfigTypeBkExporter && measurementType == models.MeasurementBkSplit) {
		return dataSource.SpaceUid != spaceUid
	}
	// 可以执行到以下代码，必然是自定义时序的数据源
	// 1. 非公共的(全空间或指定空间类型)自定义时序，查询时，不需要任何查询条件
	if !dataSource.IsPlatformDataId {
		return false
	}
	// 2. 公共自定义时序，如果属于当前space，不需要添加过滤条件
	if isExistSpace {
		return false
	}
	// 3. 公共的平台数据源，且非当前空间下，需要添加过滤条件
	return true
}

// getMeasurementTypeByTableId 获取结果表对应的单指标单表类型
func (s *SpacePusher) getMeasurementTypeByTableId(
	ctx context.Context, tableIds []string, tableIdDataIdMap map[string]uint,
) (map[string]string, error) {
	if len(tableIds) == 0 {
		return make(map[string]string), nil
	}
	rtList, err := s.meta.ListResultTables(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return nil, err
	}
	// 查询结果表是否禁用指标切分
	optionList, err := s.meta.ListResultTableOptions(ctx, s.bkTenantId, tableIds, models.OptionDisableMetricCutter)
	if err != nil {
		return nil, err
	}
	disableMetricCutterSet := mapset.NewSet[string]()
	for _, option := range optionList {
		var disabled bool
		if err := jsonx.UnmarshalString(option.Value, &disabled); err != nil {
			logging.Warnf("table_id [%s] option [%s] value invalid: %s", option.TableId, option.Name, option.Value)
			continue
		}
		if disabled {
			disableMetricCutterSet.Add(option.TableId)
		}
	}
	// 查询自定义时序分组是否单指标单表
	tsGroupList, err := s.meta.ListTimeSeriesGroups(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return nil, err
	}
	splitMeasurementSet := mapset.NewSet[string]()
	for _, group := range tsGroupList {
		if group.IsSplitMeasurement {
			splitMeasurementSet.Add(group.TableID)
		}
	}
	// 查询数据源的清洗配置
	var dataIdList []uint
	for _, dataId := range tableIdDataIdMap {
		dataIdList = append(dataIdList, dataId)
	}
	dsList, err := s.meta.ListDataSources(ctx, s.bkTenantId, slicex.RemoveDuplicate(dataIdList))
	if err != nil {
		return nil, err
	}
	dataIdEtlMap := make(map[uint]string)
	for _, ds := range dsList {
		dataIdEtlMap[ds.BkDataId] = ds.EtlConfig
	}

	measurementTypeMap := make(map[string]string, len(rtList))
	for _, rt := range rtList {
		measurementTypeMap[rt.TableId] = getMeasurementType(
			rt.SchemaType,
			splitMeasurementSet.Contains(rt.TableId),
			disableMetricCutterSet.Contains(rt.TableId),
			dataIdEtlMap[tableIdDataIdMap[rt.TableId]],
		)
	}
	return measurementTypeMap, nil
}

// getMeasurementType 按结果表schema、上报拆分方式和清洗配置推导指标表类型
func getMeasurementType(schemaType string, isSplitMeasurement, isDisableMetricCutter bool, etlConfig string) string {
	// 固定 schema 为传统型
	if schemaType == models.ResultTableSchemaTypeFixed {
		return models.MeasurementBkTraditional
	}
	if schemaType == models.ResultTableSchemaTypeFree {
		if isSplitMeasurement {
			return models.MeasurementBkSplit
		}
		if etlConfig != models.ETLConfigTypeBkStandardV2TimeSeries {
			return models.MeasurementBkExporter
		}
		// 标准v2时序未禁用切分时，按 exporter 处理
		if !isDisableMetricCutter {
			return models.MeasurementBkExporter
		}
		return models.MeasurementBkStandardV2TimeSeries
	}
	// 未知的结果表，显示为一份数据
	return models.MeasurementBkTraditional
}
