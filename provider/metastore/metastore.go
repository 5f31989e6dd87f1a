// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package metastore 基于元数据库实现监控元数据提供方
package metastore

import (
	"context"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// 避免单条SQL的IN条件过长
const queryChunkSize = 500

// MetaStore 元数据库查询实现
type MetaStore struct {
	db *gorm.DB
}

var _ provider.MetadataProvider = (*MetaStore)(nil)

// New 创建元数据提供方
func New(db *gorm.DB) *MetaStore {
	return &MetaStore{db: db}
}

// ListSpaces 查询空间列表
func (s *MetaStore) ListSpaces(ctx context.Context, bkTenantId, spaceType string) ([]models.Space, error) {
	var records []models.Space
	query := s.db.Where("bk_tenant_id = ?", bkTenantId)
	if spaceType != "" {
		query = query.Where("space_type_id = ?", spaceType)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "query space failed")
	}
	return records, nil
}

// ListSpaceResources 查询空间关联资源
func (s *MetaStore) ListSpaceResources(ctx context.Context, bkTenantId, spaceType, spaceId, resourceType string) ([]models.SpaceResource, error) {
	var records []models.SpaceResource
	query := s.db.Where("bk_tenant_id = ?", bkTenantId)
	if spaceType != "" {
		query = query.Where("space_type_id = ?", spaceType)
	}
	if spaceId != "" {
		query = query.Where("space_id = ?", spaceId)
	}
	if resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "query space resource failed")
	}
	return records, nil
}

// ListSpaceDataSources 查询空间与数据源授权关系
func (s *MetaStore) ListSpaceDataSources(ctx context.Context, bkTenantId, spaceType, spaceId string, fromAuthorization *bool) ([]models.SpaceDataSource, error) {
	var records []models.SpaceDataSource
	query := s.db.Where("bk_tenant_id = ? AND space_type_id = ? AND space_id = ?", bkTenantId, spaceType, spaceId)
	if fromAuthorization != nil {
		query = query.Where("from_authorization = ?", *fromAuthorization)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "query space data source failed")
	}
	return records, nil
}

// ListDataSources 按id查询数据源
func (s *MetaStore) ListDataSources(ctx context.Context, bkTenantId string, bkDataIds []uint) ([]models.DataSource, error) {
	var records []models.DataSource
	if len(bkDataIds) == 0 {
		if err := s.db.Where("bk_tenant_id = ? AND is_enable = ?", bkTenantId, true).Find(&records).Error; err != nil {
			return nil, errors.Wrap(err, "query data source failed")
		}
		return records, nil
	}
	for _, chunk := range slicex.ChunkSlice(bkDataIds, queryChunkSize) {
		var part []models.DataSource
		if err := s.db.Where("bk_tenant_id = ? AND bk_data_id IN (?)", bkTenantId, chunk).Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query data source failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListDataSourceResultTables 查询数据源与结果表关系
func (s *MetaStore) ListDataSourceResultTables(ctx context.Context, bkTenantId string, bkDataIds []uint, tableIds []string) ([]models.DataSourceResultTable, error) {
	var records []models.DataSourceResultTable
	switch {
	case len(bkDataIds) != 0:
		for _, chunk := range slicex.ChunkSlice(bkDataIds, queryChunkSize) {
			var part []models.DataSourceResultTable
			if err := s.db.Where("bk_tenant_id = ? AND bk_data_id IN (?)", bkTenantId, chunk).Find(&part).Error; err != nil {
				return nil, errors.Wrap(err, "query data source result table failed")
			}
			records = append(records, part...)
		}
	case len(tableIds) != 0:
		for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
			var part []models.DataSourceResultTable
			if err := s.db.Where("bk_tenant_id = ? AND table_id IN (?)", bkTenantId, chunk).Find(&part).Error; err != nil {
				return nil, errors.Wrap(err, "query data source result table failed")
			}
			records = append(records, part...)
		}
	default:
		if err := s.db.Where("bk_tenant_id = ?", bkTenantId).Find(&records).Error; err != nil {
			return nil, errors.Wrap(err, "query data source result table failed")
		}
	}
	return records, nil
}

// ListResultTables 按id查询结果表
func (s *MetaStore) ListResultTables(ctx context.Context, bkTenantId string, tableIds []string) ([]models.ResultTable, error) {
	var records []models.ResultTable
	if len(tableIds) == 0 {
		query := s.db.Where("bk_tenant_id = ? AND is_enable = ? AND is_deleted = ?", bkTenantId, true, false)
		if err := query.Find(&records).Error; err != nil {
			return nil, errors.Wrap(err, "query result table failed")
		}
		return records, nil
	}
	for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
		var part []models.ResultTable
		query := s.db.Where("bk_tenant_id = ? AND is_enable = ? AND is_deleted = ? AND table_id IN (?)", bkTenantId, true, false, chunk)
		if err := query.Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query result table failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListResultTableFields 查询结果表字段
func (s *MetaStore) ListResultTableFields(ctx context.Context, bkTenantId string, tableIds []string, tag string) ([]models.ResultTableField, error) {
	var records []models.ResultTableField
	for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
		var part []models.ResultTableField
		query := s.db.Where("bk_tenant_id = ? AND table_id IN (?)", bkTenantId, chunk)
		if tag != "" {
			query = query.Where("tag = ?", tag)
		}
		if err := query.Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query result table field failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListResultTableOptions 查询结果表option
func (s *MetaStore) ListResultTableOptions(ctx context.Context, bkTenantId string, tableIds []string, name string) ([]models.ResultTableOption, error) {
	var records []models.ResultTableOption
	for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
		var part []models.ResultTableOption
		query := s.db.Where("bk_tenant_id = ? AND table_id IN (?)", bkTenantId, chunk)
		if name != "" {
			query = query.Where("name = ?", name)
		}
		if err := query.Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query result table option failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListTimeSeriesGroups 查询结果表关联的自定义时序分组
func (s *MetaStore) ListTimeSeriesGroups(ctx context.Context, bkTenantId string, tableIds []string) ([]models.TimeSeriesGroup, error) {
	var records []models.TimeSeriesGroup
	for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
		var part []models.TimeSeriesGroup
		query := s.db.Where("bk_tenant_id = ? AND is_delete = ? AND table_id IN (?)", bkTenantId, false, chunk)
		if err := query.Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query time series group failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListTimeSeriesMetrics 查询分组下指定时间后有更新的指标
func (s *MetaStore) ListTimeSeriesMetrics(ctx context.Context, groupIds []uint, since time.Time) ([]models.TimeSeriesMetric, error) {
	var records []models.TimeSeriesMetric
	for _, chunk := range slicex.ChunkSlice(groupIds, queryChunkSize) {
		var part []models.TimeSeriesMetric
		query := s.db.Where("group_id IN (?)", chunk)
		if !since.IsZero() {
			query = query.Where("last_modify_time >= ?", since)
		}
		if err := query.Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query time series metric failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListInfluxdbStorages 查询influxdb存储配置
func (s *MetaStore) ListInfluxdbStorages(ctx context.Context, bkTenantId string, tableIds []string) ([]models.InfluxdbStorage, error) {
	var records []models.InfluxdbStorage
	if len(tableIds) == 0 {
		if err := s.db.Where("bk_tenant_id = ?", bkTenantId).Find(&records).Error; err != nil {
			return nil, errors.Wrap(err, "query influxdb storage failed")
		}
		return records, nil
	}
	for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
		var part []models.InfluxdbStorage
		if err := s.db.Where("bk_tenant_id = ? AND table_id IN (?)", bkTenantId, chunk).Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query influxdb storage failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// ListAccessVMRecords 查询vm接入记录
func (s *MetaStore) ListAccessVMRecords(ctx context.Context, bkTenantId string, tableIds []string) ([]models.AccessVMRecord, error) {
	var records []models.AccessVMRecord
	if len(tableIds) == 0 {
		if err := s.db.Where("bk_tenant_id = ?", bkTenantId).Find(&records).Error; err != nil {
			return nil, errors.Wrap(err, "query access vm record failed")
		}
		return records, nil
	}
	for _, chunk := range slicex.ChunkSlice(tableIds, queryChunkSize) {
		var part []models.AccessVMRecord
		if err := s.db.Where("bk_tenant_id = ? AND result_table_id IN (?)", bkTenantId, chunk).Find(&part).Error; err != nil {
			return nil, errors.Wrap(err, "query access vm record failed")
		}
		records = append(records, part...)
	}
	return records, nil
}

// GetPlatformDataIds 查询空间类型下的公共数据源id及其归属空间uid
func (s *MetaStore) GetPlatformDataIds(ctx context.Context, bkTenantId, spaceType string) (map[uint]string, error) {
	var records []models.DataSource
	query := s.db.Where("bk_tenant_id = ? AND is_platform_data_id = ?", bkTenantId, true)
	// bkcc类型的公共数据源对全部空间类型开放
	if spaceType != "" && spaceType != models.SpaceTypeBKCC {
		query = query.Where("space_type_id IN (?)", []string{spaceType, "all"})
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "query platform data source failed")
	}

	dataIdSpaceUid := make(map[uint]string, len(records))
	for _, record := range records {
		dataIdSpaceUid[record.BkDataId] = record.SpaceUid
	}
	return dataIdSpaceUid, nil
}

// ListBCSClusterInfo 查询bcs集群信息
func (s *MetaStore) ListBCSClusterInfo(ctx context.Context, bkTenantId string, clusterIds []string) ([]models.BCSClusterInfo, error) {
	var records []models.BCSClusterInfo
	query := s.db.Where("bk_tenant_id = ? AND status = ?", bkTenantId, models.BcsClusterStatusRunning)
	if len(clusterIds) != 0 {
		query = query.Where("cluster_id IN (?)", clusterIds)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "query bcs cluster info failed")
	}
	return records, nil
}
