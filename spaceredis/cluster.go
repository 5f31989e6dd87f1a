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
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// composeBkciTableIds 组装 bkci 类型空间的路由数据
// 由关联业务、集群、空间级、其它、跨空间类型五部分合并而成
func (s *SpacePusher) composeBkciTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	values, err := s.composeBkciBizTableIds(ctx, spaceType, spaceId)
	if err != nil {
		return nil, err
	}
	clusterValues, err := s.composeClusterTableIds(ctx, spaceType, spaceId, models.SpaceResourceTypeBCS, nil)
	if err != nil {
		return nil, err
	}
	for tid, value := range clusterValues {
		values[tid] = value
	}
	levelValues, err := s.composeBkciLevelTableIds(ctx, spaceType, spaceId)
	if err != nil {
		return nil, err
	}
	for tid, value := range levelValues {
		values[tid] = value
	}
	otherValues, err := s.composeBkciOtherTableIds(ctx, spaceType, spaceId)
	if err != nil {
		return nil, err
	}
	for tid, value := range otherValues {
		values[tid] = value
	}
	crossValues, err := s.composeBkciCrossTableIds(ctx, spaceType, spaceId)
	if err != nil {
		return nil, err
	}
	for tid, value := range crossValues {
		values[tid] = value
	}
	return values, nil
}

// composeBksaasTableIds 组装 bksaas 类型空间的路由数据，集群数据加直属数据源
func (s *SpacePusher) composeBksaasTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	values, err := s.composeClusterTableIds(ctx, spaceType, spaceId, models.SpaceResourceTypeBKSAAS, &spaceId)
	if err != nil {
		return nil, err
	}
	otherValues, err := s.composeBksaasOtherTableIds(ctx, spaceType, spaceId)
	if err != nil {
		return nil, err
	}
	for tid, value := range otherValues {
		values[tid] = value
	}
	return values, nil
}

// composeBkciBizTableIds 组装 bkci 空间关联业务的主机数据
// 仅可访问关联业务下的主机系统表
func (s *SpacePusher) composeBkciBizTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	logging.Infof("start to push biz of bkci space table_id, space_type [%s], space_id [%s]", spaceType, spaceId)
	resourceType := models.SpaceResourceTypeBKCC
	srList, err := s.meta.ListSpaceResources(ctx, s.bkTenantId, spaceType, spaceId, resourceType)
	if err != nil {
		return nil, err
	}
	if len(srList) == 0 {
		logging.Warnf("space [%s__%s], resource_type [%s] not found", spaceType, spaceId, resourceType)
		return make(map[string]map[string]interface{}), nil
	}
	// 获取空间关联的业务，注意这里业务 ID 为字符串类型
	var bizIdStr string
	if srList[0].ResourceId != nil {
		bizIdStr = *srList[0].ResourceId
	}
	if bizIdStr == "" {
		return make(map[string]map[string]interface{}), nil
	}
	fromAuthorization := false
	values, err := s.composeData(
		ctx, resourceType, bizIdStr, nil,
		[]map[string]interface{}{{"bk_biz_id": bizIdStr}},
		dataIdOptions{includePlatformDataId: true, fromAuthorization: &fromAuthorization},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "compose data for [%s__%s] failed", resourceType, bizIdStr)
	}
	// bkci 只能访问业务下的主机系统表
	systemValues := make(map[string]map[string]interface{})
	for tid, value := range values {
		if strings.HasPrefix(tid, models.SystemTableIdPrefix) || strings.HasPrefix(tid, models.BkciSystemTableIdPrefix) {
			systemValues[tid] = value
		}
	}
	return systemValues, nil
}

// composeClusterTableIds 组装空间关联集群的路由数据
// 共享集群按命名空间逐条展开过滤条件，独立集群无命名空间限制
func (s *SpacePusher) composeClusterTableIds(
	ctx context.Context, spaceType, spaceId, resourceType string, resourceId *string,
) (map[string]map[string]interface{}, error) {
	logging.Infof("start to push cluster of space table_id, space_type [%s], space_id [%s]", spaceType, spaceId)
	values := make(map[string]map[string]interface{})
	srList, err := s.meta.ListSpaceResources(ctx, s.bkTenantId, spaceType, spaceId, resourceType)
	if err != nil {
		return nil, err
	}
	var sr *models.SpaceResource
	for i := range srList {
		if resourceId != nil && (srList[i].ResourceId == nil || *srList[i].ResourceId != *resourceId) {
			continue
		}
		sr = &srList[i]
		break
	}
	if sr == nil {
		logging.Warnf("space [%s__%s], resource_type [%s] not found", spaceType, spaceId, resourceType)
		return values, nil
	}
	var dimensions []provider.BcsClusterDimension
	if err := jsonx.UnmarshalString(sr.DimensionValues, &dimensions); err != nil {
		return nil, errors.Wrap(err, "unmarshal space resource dimension failed")
	}
	if len(dimensions) == 0 {
		return values, nil
	}

	// 集群对应的过滤条件: {cluster_id: [{"bcs_cluster_id": xxx, "namespace": xxx}]}
	clusterFilters := make(map[string][]map[string]interface{})
	var clusterIds []string
	for _, dimension := range dimensions {
		switch dimension.ClusterType {
		case models.BcsClusterTypeShared:
			for _, namespace := range dimension.Namespace {
				clusterFilters[dimension.ClusterId] = append(clusterFilters[dimension.ClusterId], map[string]interface{}{
					"bcs_cluster_id": dimension.ClusterId, "namespace": namespace,
				})
			}
		default:
			clusterFilters[dimension.ClusterId] = []map[string]interface{}{
				{"bcs_cluster_id": dimension.ClusterId, "namespace": nil},
			}
		}
		if len(clusterFilters[dimension.ClusterId]) != 0 {
			clusterIds = append(clusterIds, dimension.ClusterId)
		}
	}
	if len(clusterIds) == 0 {
		return values, nil
	}

	dataIdClusterIdMap, err := s.getClusterDataIds(ctx, clusterIds)
	if err != nil {
		return nil, err
	}
	if len(dataIdClusterIdMap) == 0 {
		return values, nil
	}
	tableIdDataIdMap, err := s.getResultTablesByDataIds(ctx, lo.Keys(dataIdClusterIdMap), nil)
	if err != nil {
		return nil, err
	}
	tableIds, err := s.refineTableIds(ctx, lo.Keys(tableIdDataIdMap))
	if err != nil {
		return nil, err
	}
	for _, tid := range tableIds {
		clusterId := dataIdClusterIdMap[tableIdDataIdMap[tid]]
		filters, ok := clusterFilters[clusterId]
		if !ok {
			continue
		}
		values[tid] = map[string]interface{}{"filters": filters}
	}
	return values, nil
}

// composeBkciLevelTableIds 组装 bkci 空间级数据源的路由数据
func (s *SpacePusher) composeBkciLevelTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	logging.Infof("start to push bkci level table_id, space_type [%s], space_id [%s]", spaceType, spaceId)
	values := make(map[string]map[string]interface{})
	platformDataIds, err := s.meta.GetPlatformDataIds(ctx, s.bkTenantId, models.SpaceTypeBKCI)
	if err != nil {
		return nil, err
	}
	if len(platformDataIds) == 0 {
		return values, nil
	}
	tableIdDataIdMap, err := s.getResultTablesByDataIds(ctx, lo.Keys(platformDataIds), nil)
	if err != nil {
		return nil, err
	}
	tableIds, err := s.refineTableIds(ctx, lo.Keys(tableIdDataIdMap))
	if err != nil {
		return nil, err
	}
	for _, tid := range tableIds {
		values[tid] = map[string]interface{}{
			"filters": []map[string]interface{}{{"projectId": spaceId}},
		}
	}
	return values, nil
}

// composeBkciOtherTableIds 组装 bkci 空间下直属数据源的路由数据，排除集群数据源
func (s *SpacePusher) composeBkciOtherTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	logging.Infof("start to push bkci other table_id, space_type [%s], space_id [%s]", spaceType, spaceId)
	excludeDataIds, err := s.getSpaceClusterDataIds(ctx, spaceType, spaceId, models.SpaceResourceTypeBCS)
	if err != nil {
		return nil, err
	}
	fromAuthorization := false
	tableIdDataIdMap, err := s.GetSpaceTableIdDataId(
		ctx, spaceType, spaceId, nil, excludeDataIds,
		dataIdOptions{includePlatformDataId: false, fromAuthorization: &fromAuthorization},
	)
	if err != nil {
		return nil, err
	}
	values := make(map[string]map[string]interface{})
	if len(tableIdDataIdMap) == 0 {
		logging.Warnf("space_type [%s], space_id [%s] not found table_id and data_id", spaceType, spaceId)
		return values, nil
	}
	tableIds, err := s.refineTableIds(ctx, lo.Keys(tableIdDataIdMap))
	if err != nil {
		return nil, err
	}
	for _, tid := range tableIds {
		// 主机和dbm的系统表走关联业务的路径
		if strings.HasPrefix(tid, models.SystemTableIdPrefix) || strings.HasPrefix(tid, models.DbmSystemTableIdPrefix) {
			continue
		}
		// 跨空间类型的表由专门的路径携带projectId过滤条件
		if strings.HasPrefix(tid, models.Bkci1001TableIdPrefix) {
			continue
		}
		if strings.HasPrefix(tid, models.Dbm1001TableIdPrefix) &&
			!slicex.IsExistItem(config.GlobalAccessDbmRtSpaceUid, models.BuildSpaceUid(spaceType, spaceId)) {
			continue
		}
		values[tid] = map[string]interface{}{"filters": []interface{}{}}
	}
	return values, nil
}

// composeBkciCrossTableIds 组装跨空间类型可访问的 bkci 专属表
func (s *SpacePusher) composeBkciCrossTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	logging.Infof("start to push bkci cross table_id, space_type [%s], space_id [%s]", spaceType, spaceId)
	rtList, err := s.meta.ListResultTables(ctx, s.bkTenantId, nil)
	if err != nil {
		return nil, err
	}
	var tableIds []string
	for _, rt := range rtList {
		if strings.HasPrefix(rt.TableId, models.Bkci1001TableIdPrefix) {
			tableIds = append(tableIds, rt.TableId)
		}
	}
	values := make(map[string]map[string]interface{})
	if len(tableIds) == 0 {
		return values, nil
	}
	tableIds, err = s.refineTableIds(ctx, tableIds)
	if err != nil {
		return nil, err
	}
	for _, tid := range tableIds {
		values[tid] = map[string]interface{}{
			"filters": []map[string]interface{}{{"projectId": spaceId}},
		}
	}
	return values, nil
}

// composeBksaasOtherTableIds 组装 bksaas 空间下直属数据源的路由数据，排除集群数据源
func (s *SpacePusher) composeBksaasOtherTableIds(ctx context.Context, spaceType, spaceId string) (map[string]map[string]interface{}, error) {
	logging.Infof("start to push bksaas other table_id, space_type [%s], space_id [%s]", spaceType, spaceId)
	excludeDataIds, err := s.getSpaceClusterDataIds(ctx, spaceType, spaceId, models.SpaceResourceTypeBKSAAS)
	if err != nil {
		return nil, err
	}
	fromAuthorization := false
	tableIdDataIdMap, err := s.GetSpaceTableIdDataId(
		ctx, spaceType, spaceId, nil, excludeDataIds,
		dataIdOptions{includePlatformDataId: false, fromAuthorization: &fromAuthorization},
	)
	if err != nil {
		return nil, err
	}
	values := make(map[string]map[string]interface{})
	if len(tableIdDataIdMap) == 0 {
		logging.Warnf("space_type [%s], space_id [%s] not found table_id and data_id", spaceType, spaceId)
		return values, nil
	}
	tableIds, err := s.refineTableIds(ctx, lo.Keys(tableIdDataIdMap))
	if err != nil {
		return nil, err
	}
	for _, tid := range tableIds {
		if strings.HasPrefix(tid, models.Bkci1001TableIdPrefix) {
			continue
		}
		if strings.HasPrefix(tid, models.Dbm1001TableIdPrefix) &&
			!slicex.IsExistItem(config.GlobalAccessDbmRtSpaceUid, models.BuildSpaceUid(spaceType, spaceId)) {
			continue
		}
		values[tid] = map[string]interface{}{"filters": []interface{}{}}
	}
	return values, nil
}

// getSpaceClusterDataIds 获取空间关联集群的数据源 ID 列表
func (s *SpacePusher) getSpaceClusterDataIds(ctx context.Context, spaceType, spaceId, resourceType string) ([]uint, error) {
	srList, err := s.meta.ListSpaceResources(ctx, s.bkTenantId, spaceType, spaceId, resourceType)
	if err != nil {
		return nil, err
	}
	var clusterIds []string
	for _, sr := range srList {
		var dimensions []provider.BcsClusterDimension
		if err := jsonx.UnmarshalString(sr.DimensionValues, &dimensions); err != nil {
			logging.Warnf("space [%s__%s] resource dimension invalid: %v", spaceType, spaceId, err)
			continue
		}
		for _, dimension := range dimensions {
			clusterIds = append(clusterIds, dimension.ClusterId)
		}
	}
	if len(clusterIds) == 0 {
		return nil, nil
	}
	dataIdClusterIdMap, err := s.getClusterDataIds(ctx, clusterIds)
	if err != nil {
		return nil, err
	}
	return lo.Keys(dataIdClusterIdMap), nil
}

// getClusterDataIds 获取集群的内置和自定义指标数据源，返回 {data_id: cluster_id}
func (s *SpacePusher) getClusterDataIds(ctx context.Context, clusterIds []string) (map[uint]string, error) {
	if len(clusterIds) == 0 {
		return make(map[uint]string), nil
	}
	clusterList, err := s.meta.ListBCSClusterInfo(ctx, s.bkTenantId, clusterIds)
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
	return dataIdClusterIdMap, nil
}

// getResultTablesByDataIds 获取数据源对应的结果表，返回 {table_id: data_id}
func (s *SpacePusher) getResultTablesByDataIds(ctx context.Context, dataIds []uint, tableIds []string) (map[string]uint, error) {
	if len(dataIds) == 0 && len(tableIds) == 0 {
		return make(map[string]uint), nil
	}
	dsrtList, err := s.meta.ListDataSourceResultTables(ctx, s.bkTenantId, dataIds, tableIds)
	if err != nil {
		return nil, err
	}
	tableIdDataIdMap := make(map[string]uint)
	for _, dsrt := range dsrtList {
		tableIdDataIdMap[dsrt.TableId] = dsrt.BkDataId
	}
	return tableIdDataIdMap, nil
}
