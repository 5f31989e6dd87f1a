// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package tenant 租户信息
package tenant

import (
	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// DefaultTenantId 默认租户id
func DefaultTenantId() string {
	return config.DefaultTenantId
}

// IsDefaultTenant 是否为默认租户
func IsDefaultTenant(bkTenantId string) bool {
	return bkTenantId == config.DefaultTenantId
}

// ListTenantId 获取租户id列表，默认租户始终在列
func ListTenantId() []string {
	tenantIds := append([]string{config.DefaultTenantId}, config.TenantIdList...)
	return slicex.RemoveDuplicate(tenantIds)
}
