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
	"strings"
)

// InfluxdbStorage influxdb存储配置模型
type InfluxdbStorage struct {
	BkTenantId             string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	TableID                string `json:"table_id" gorm:"column:table_id;size:128;primary_key"`
	StorageClusterID       uint   `json:"storage_cluster_id" gorm:"column:storage_cluster_id"`
	RealTableName          string `json:"real_table_name" gorm:"column:real_table_name;size:128"`
	Database               string `json:"database" gorm:"column:database;size:128"`
	InfluxdbProxyStorageId uint   `json:"influxdb_proxy_storage_id" gorm:"column:influxdb_proxy_storage_id"`
	PartitionTag           string `json:"partition_tag" gorm:"column:partition_tag;size:128"`
}

// TableName table alias name
func (InfluxdbStorage) TableName() string {
	return "metadata_influxdbstorage"
}

// PartitionTags 分区tag列表
func (i InfluxdbStorage) PartitionTags() []string {
	if i.PartitionTag == "" {
		return []string{}
	}
	return strings.Split(i.PartitionTag, ",")
}

// AccessVMRecord vm接入记录模型
type AccessVMRecord struct {
	BkTenantId      string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id              uint   `json:"id" gorm:"primary_key"`
	ResultTableId   string `json:"result_table_id" gorm:"column:result_table_id;size:128"`
	VmResultTableId string `json:"vm_result_table_id" gorm:"column:vm_result_table_id;size:128"`
	VmClusterId     uint   `json:"vm_cluster_id" gorm:"column:vm_cluster_id"`
	BkBaseDataId    uint   `json:"bk_base_data_id" gorm:"column:bk_base_data_id"`
}

// TableName table alias name
func (AccessVMRecord) TableName() string {
	return "metadata_accessvmrecord"
}

// BCSClusterInfo bcs集群信息模型
type BCSClusterInfo struct {
	BkTenantId         string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id                 uint   `json:"id" gorm:"primary_key"`
	ClusterID          string `json:"cluster_id" gorm:"column:cluster_id;size:128"`
	BCSApiClusterId    uint   `json:"bcs_api_cluster_id" gorm:"column:bcs_api_cluster_id"`
	BkBizId            int    `json:"bk_biz_id" gorm:"column:bk_biz_id"`
	ProjectId          string `json:"project_id" gorm:"column:project_id;size:128"`
	Status             string `json:"status" gorm:"column:status;size:50"`
	K8sMetricDataID    uint   `json:"k8s_metric_data_id" gorm:"column:k8s_metric_data_id"`
	CustomMetricDataID uint   `json:"custom_metric_data_id" gorm:"column:custom_metric_data_id"`
}

// TableName table alias name
func (BCSClusterInfo) TableName() string {
	return "metadata_bcsclusterinfo"
}
