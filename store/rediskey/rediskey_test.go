// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package rediskey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
)

func TestTenantPrefix(t *testing.T) {
	assert.Equal(t, "bkmonitor.ee", TenantPrefix(config.DefaultTenantId))
	assert.Equal(t, "tencent.bkmonitor.ee", TenantPrefix("tencent"))
}

func TestCmdbCacheKey(t *testing.T) {
	assert.Equal(t, "bkmonitor.ee.cache.cmdb.host", CmdbCacheKey(config.DefaultTenantId, ComponentHost))
	assert.Equal(t, "tencent.bkmonitor.ee.cache.cmdb.business", CmdbCacheKey("tencent", ComponentBusiness))

	// 非默认租户的key必须以租户id开头，默认租户不携带租户id
	for _, component := range CmdbComponents {
		key := CmdbCacheKey("tencent", component)
		assert.True(t, strings.HasPrefix(key, "tencent."))

		key = CmdbCacheKey(config.DefaultTenantId, component)
		assert.True(t, strings.HasPrefix(key, "bkmonitor.ee."))
		assert.False(t, strings.Contains(key, config.DefaultTenantId))
	}
}

func TestRouterKeys(t *testing.T) {
	assert.Equal(t, "bkmonitor.ee.cache.space_to_result_table", SpaceToResultTableKey(config.DefaultTenantId))
	assert.Equal(t, "bkmonitor.ee.cache.data_label_to_result_table", DataLabelToResultTableKey(config.DefaultTenantId))
	assert.Equal(t, "bkmonitor.ee.cache.result_table_detail", ResultTableDetailKey(config.DefaultTenantId))

	assert.Equal(t, "tencent.bkmonitor.ee.channel.space_to_result_table", SpaceToResultTableChannel("tencent"))
	assert.Equal(t, "bkmonitor.ee.channel.data_label_to_result_table", DataLabelToResultTableChannel(config.DefaultTenantId))
	assert.Equal(t, "bkmonitor.ee.channel.result_table_detail", ResultTableDetailChannel(config.DefaultTenantId))
}
