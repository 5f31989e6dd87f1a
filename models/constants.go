// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package models 监控平台元数据模型定义
package models

const (
	// SpaceTypeBKCC 业务空间类型
	SpaceTypeBKCC = "bkcc"
	// SpaceTypeBKCI 容器(研发项目)空间类型
	SpaceTypeBKCI = "bkci"
	// SpaceTypeBKSAAS 蓝鲸应用空间类型
	SpaceTypeBKSAAS = "bksaas"
)

const (
	// MeasurementBkTraditional 传统型(固定schema)
	MeasurementBkTraditional = "bk_traditional_measurement"
	// MeasurementBkSplit 单指标单表
	MeasurementBkSplit = "bk_split_measurement"
	// MeasurementBkExporter exporter型
	MeasurementBkExporter = "bk_exporter"
	// MeasurementBkStandardV2TimeSeries 标准v2自定义时序
	MeasurementBkStandardV2TimeSeries = "bk_standard_v2_time_series"
)

const (
	// ETLConfigTypeBkStandardV2TimeSeries 标准v2时序清洗配置
	ETLConfigTypeBkStandardV2TimeSeries = "bk_standard_v2_time_series"
	// ETLConfigTypeBkExporter exporter清洗配置
	ETLConfigTypeBkExporter = "bk_exporter"
)

const (
	// ResultTableSchemaTypeFixed 固定schema结果表
	ResultTableSchemaTypeFixed = "fixed"
	// ResultTableSchemaTypeFree 动态schema结果表
	ResultTableSchemaTypeFree = "free"
)

const (
	// ResultTableFieldTagMetric 指标字段
	ResultTableFieldTagMetric = "metric"
	// ResultTableFieldTagDimension 维度字段
	ResultTableFieldTagDimension = "dimension"
)

const (
	// OptionEnableFieldBlackList 指标黑名单开关option，值为false时走白名单模式
	OptionEnableFieldBlackList = "enable_field_black_list"
	// OptionIsSplitMeasurement 单指标单表开关option
	OptionIsSplitMeasurement = "is_split_measurement"
	// OptionDisableMetricCutter 禁用指标切分option
	OptionDisableMetricCutter = "disable_metric_cutter"
)

const (
	// SystemTableIdPrefix 主机系统表前缀
	SystemTableIdPrefix = "system."
	// DbmSystemTableIdPrefix dbm主机系统表前缀
	DbmSystemTableIdPrefix = "dbm_system."
	// Bkci1001TableIdPrefix bkci空间专属表前缀
	Bkci1001TableIdPrefix = "bkci_1001_"
	// BkciSystemTableIdPrefix bkci关联业务主机表前缀
	BkciSystemTableIdPrefix = "bkci_system_"
	// Dbm1001TableIdPrefix dbm专属表前缀，按空间白名单开放
	Dbm1001TableIdPrefix = "dbm_1001_"
)

const (
	// SpaceResourceTypeBKCC 关联业务资源
	SpaceResourceTypeBKCC = "bkcc"
	// SpaceResourceTypeBCS 关联bcs集群资源
	SpaceResourceTypeBCS = "bcs"
	// SpaceResourceTypeBKSAAS 关联蓝鲸应用集群资源
	SpaceResourceTypeBKSAAS = "bksaas"
)

const (
	// BcsClusterTypeShared 共享集群
	BcsClusterTypeShared = "shared"
	// BcsClusterTypeSingle 独立集群
	BcsClusterTypeSingle = "single"
	// BcsClusterStatusRunning 集群正常状态
	BcsClusterStatusRunning = "running"
)
