// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package models

import (
	"time"
)

// DataSource 数据源模型
type DataSource struct {
	BkTenantId       string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	BkDataId         uint   `json:"bk_data_id" gorm:"column:bk_data_id;primary_key"`
	DataName         string `json:"data_name" gorm:"column:data_name;size:128"`
	EtlConfig        string `json:"etl_config" gorm:"column:etl_config;size:128"`
	SpaceTypeId      string `json:"space_type_id" gorm:"column:space_type_id;size:64"`
	SpaceUid         string `json:"space_uid" gorm:"column:space_uid;size:256"`
	IsPlatformDataId bool   `json:"is_platform_data_id" gorm:"column:is_platform_data_id"`
	IsEnable         bool   `json:"is_enable" gorm:"column:is_enable"`
}

// TableName table alias name
func (DataSource) TableName() string {
	return "metadata_datasource"
}

// ResultTable 结果表模型
type ResultTable struct {
	BkTenantId   string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	TableId      string `json:"table_id" gorm:"column:table_id;size:128;primary_key"`
	TableNameZh  string `json:"table_name_zh" gorm:"column:table_name_zh;size:128"`
	BkBizId      int    `json:"bk_biz_id" gorm:"column:bk_biz_id"`
	SchemaType   string `json:"schema_type" gorm:"column:schema_type;size:64"`
	DefaultStorage string `json:"default_storage" gorm:"column:default_storage;size:32"`
	DataLabel    *string `json:"data_label" gorm:"column:data_label;size:128"`
	IsEnable     bool   `json:"is_enable" gorm:"column:is_enable"`
	IsDeleted    bool   `json:"is_deleted" gorm:"column:is_deleted"`
}

// TableName table alias name
func (ResultTable) TableName() string {
	return "metadata_resulttable"
}

// DataSourceResultTable 数据源与结果表关联模型
type DataSourceResultTable struct {
	BkTenantId string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id         uint   `json:"id" gorm:"primary_key"`
	BkDataId   uint   `json:"bk_data_id" gorm:"column:bk_data_id"`
	TableId    string `json:"table_id" gorm:"column:table_id;size:128"`
}

// TableName table alias name
func (DataSourceResultTable) TableName() string {
	return "metadata_datasourceresulttable"
}

// ResultTableField 结果表字段模型
type ResultTableField struct {
	BkTenantId string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id         uint   `json:"id" gorm:"primary_key"`
	TableId    string `json:"table_id" gorm:"column:table_id;size:128"`
	FieldName  string `json:"field_name" gorm:"column:field_name;size:255"`
	FieldType  string `json:"field_type" gorm:"column:field_type;size:32"`
	Tag        string `json:"tag" gorm:"column:tag;size:16"`
	IsDisabled bool   `json:"is_disabled" gorm:"column:is_disabled"`
}

// TableName table alias name
func (ResultTableField) TableName() string {
	return "metadata_resulttablefield"
}

// ResultTableOption 结果表option模型
type ResultTableOption struct {
	BkTenantId string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id         uint   `json:"id" gorm:"primary_key"`
	TableId    string `json:"table_id" gorm:"column:table_id;size:128"`
	Name       string `json:"name" gorm:"column:name;size:128"`
	Value      string `json:"value" gorm:"column:value;type:text"`
	ValueType  string `json:"value_type" gorm:"column:value_type;size:64"`
}

// TableName table alias name
func (ResultTableOption) TableName() string {
	return "metadata_resulttableoption"
}

// TimeSeriesGroup 自定义时序分组模型
type TimeSeriesGroup struct {
	BkTenantId        string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	TimeSeriesGroupID uint   `json:"time_series_group_id" gorm:"column:time_series_group_id;primary_key"`
	BkDataID          uint   `json:"bk_data_id" gorm:"column:bk_data_id"`
	TableID           string `json:"table_id" gorm:"column:table_id;size:128"`
	IsSplitMeasurement bool  `json:"is_split_measurement" gorm:"column:is_split_measurement"`
	IsDelete          bool   `json:"is_delete" gorm:"column:is_delete"`
}

// TableName table alias name
func (TimeSeriesGroup) TableName() string {
	return "metadata_timeseriesgroup"
}

// TimeSeriesMetric 自定义时序指标模型
type TimeSeriesMetric struct {
	GroupID        uint      `json:"group_id" gorm:"column:group_id"`
	FieldID        uint      `json:"field_id" gorm:"column:field_id;primary_key"`
	FieldName      string    `json:"field_name" gorm:"column:field_name;size:255"`
	TagList        string    `json:"tag_list" gorm:"column:tag_list;type:text"`
	LastModifyTime time.Time `json:"last_modify_time" gorm:"column:last_modify_time"`
}

// TableName table alias name
func (TimeSeriesMetric) TableName() string {
	return "metadata_timeseriesmetric"
}
