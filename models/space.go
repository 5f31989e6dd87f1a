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
	"fmt"
)

// Space 空间模型
type Space struct {
	BkTenantId  string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id          uint   `json:"id" gorm:"primary_key"`
	SpaceTypeId string `json:"space_type_id" gorm:"column:space_type_id;size:64"`
	SpaceId     string `json:"space_id" gorm:"column:space_id;size:128"`
	SpaceName   string `json:"space_name" gorm:"column:space_name;size:256"`
	SpaceCode   string `json:"space_code" gorm:"column:space_code;size:64"`
	IsBcsValid  bool   `json:"is_bcs_valid" gorm:"column:is_bcs_valid"`
}

// TableName table alias name
func (Space) TableName() string {
	return "metadata_space"
}

// SpaceUid 空间唯一标识
func (s Space) SpaceUid() string {
	return BuildSpaceUid(s.SpaceTypeId, s.SpaceId)
}

// BuildSpaceUid 拼接空间唯一标识
func BuildSpaceUid(spaceType, spaceId string) string {
	return fmt.Sprintf("%s__%s", spaceType, spaceId)
}

// SpaceDataSource 空间与数据源授权关系模型
type SpaceDataSource struct {
	BkTenantId        string `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id                uint   `json:"id" gorm:"primary_key"`
	SpaceTypeId       string `json:"space_type_id" gorm:"column:space_type_id;size:64"`
	SpaceId           string `json:"space_id" gorm:"column:space_id;size:128"`
	BkDataId          uint   `json:"bk_data_id" gorm:"column:bk_data_id"`
	FromAuthorization bool   `json:"from_authorization" gorm:"column:from_authorization"`
}

// TableName table alias name
func (SpaceDataSource) TableName() string {
	return "metadata_spacedatasource"
}

// SpaceResource 空间关联资源模型，dimension_values为JSON列表
type SpaceResource struct {
	BkTenantId      string  `json:"bk_tenant_id" gorm:"column:bk_tenant_id;size:256"`
	Id              uint    `json:"id" gorm:"primary_key"`
	SpaceTypeId     string  `json:"space_type_id" gorm:"column:space_type_id;size:64"`
	SpaceId         string  `json:"space_id" gorm:"column:space_id;size:128"`
	ResourceType    string  `json:"resource_type" gorm:"column:resource_type;size:64"`
	ResourceId      *string `json:"resource_id" gorm:"column:resource_id;size:128"`
	DimensionValues string  `json:"dimension_values" gorm:"column:dimension_values;type:text"`
}

// TableName table alias name
func (SpaceResource) TableName() string {
	return "metadata_spaceresource"
}
