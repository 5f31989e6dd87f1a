// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package provider

import (
	"context"
	"time"

	"github.com/TencentBlueKing/bk-monitor-space-router/models"
)

// CmdbProvider cmdb数据提供方，按业务维度查询
type CmdbProvider interface {
	// ListBusinesses 查询租户下全部业务
	ListBusinesses(ctx context.Context, bkTenantId string) ([]Business, error)
	// ListHostsByBiz 查询业务下主机，包含模块/集群id列表
	ListHostsByBiz(ctx context.Context, bkTenantId string, bkBizId int) ([]Host, error)
	// GetTopoTree 查询业务拓扑树
	GetTopoTree(ctx context.Context, bkTenantId string, bkBizId int) (*TopoNode, error)
	// ListSets 查询业务下集群
	ListSets(ctx context.Context, bkTenantId string, bkBizId int) ([]Set, error)
	// ListModules 查询业务下模块
	ListModules(ctx context.Context, bkTenantId string, bkBizId int) ([]Module, error)
	// ListServiceInstances 查询业务下服务实例
	ListServiceInstances(ctx context.Context, bkTenantId string, bkBizId int) ([]ServiceInstance, error)
}

// MetadataProvider 监控元数据提供方，空间/数据源/结果表维度查询
type MetadataProvider interface {
	// ListSpaces 查询空间列表，spaceType为空时查询全部
	ListSpaces(ctx context.Context, bkTenantId, spaceType string) ([]models.Space, error)
	// ListSpaceResources 查询空间关联资源
	ListSpaceResources(ctx context.Context, bkTenantId, spaceType, spaceId, resourceType string) ([]models.SpaceResource, error)
	// ListSpaceDataSources 查询空间与数据源授权关系
	ListSpaceDataSources(ctx context.Context, bkTenantId, spaceType, spaceId string, fromAuthorization *bool) ([]models.SpaceDataSource, error)
	// ListDataSources 按id查询数据源，ids为空时查询全部
	ListDataSources(ctx context.Context, bkTenantId string, bkDataIds []uint) ([]models.DataSource, error)
	// ListDataSourceResultTables 查询数据源与结果表关系，过滤条件可二选一
	ListDataSourceResultTables(ctx context.Context, bkTenantId string, bkDataIds []uint, tableIds []string) ([]models.DataSourceResultTable, error)
	// ListResultTables 按id查询结果表，tableIds为空时查询全部启用表
	ListResultTables(ctx context.Context, bkTenantId string, tableIds []string) ([]models.ResultTable, error)
	// ListResultTableFields 查询结果表字段，tag非空时按tag过滤
	ListResultTableFields(ctx context.Context, bkTenantId string, tableIds []string, tag string) ([]models.ResultTableField, error)
	// ListResultTableOptions 查询结果表option，name非空时按名称过滤
	ListResultTableOptions(ctx context.Context, bkTenantId string, tableIds []string, name string) ([]models.ResultTableOption, error)
	// ListTimeSeriesGroups 查询结果表关联的自定义时序分组
	ListTimeSeriesGroups(ctx context.Context, bkTenantId string, tableIds []string) ([]models.TimeSeriesGroup, error)
	// ListTimeSeriesMetrics 查询分组下指定时间后有更新的指标
	ListTimeSeriesMetrics(ctx context.Context, groupIds []uint, since time.Time) ([]models.TimeSeriesMetric, error)
	// ListInfluxdbStorages 查询influxdb存储配置
	ListInfluxdbStorages(ctx context.Context, bkTenantId string, tableIds []string) ([]models.InfluxdbStorage, error)
	// ListAccessVMRecords 查询vm接入记录
	ListAccessVMRecords(ctx context.Context, bkTenantId string, tableIds []string) ([]models.AccessVMRecord, error)
	// GetPlatformDataIds 查询空间类型下的公共数据源id及其归属空间uid
	GetPlatformDataIds(ctx context.Context, bkTenantId, spaceType string) (map[uint]string, error)
	// ListBCSClusterInfo 查询bcs集群信息，clusterIds为空时查询全部正常集群
	ListBCSClusterInfo(ctx context.Context, bkTenantId string, clusterIds []string) ([]models.BCSClusterInfo, error)
}
