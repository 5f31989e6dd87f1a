// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-monitor-space-router/cmdbcache"
	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
)

var (
	refreshBizId     int
	refreshCacheType string
)

var refreshCmdbCmd = &cobra.Command{
	Use:   "refresh-cmdb",
	Short: "refresh cmdb caches once",
	Long:  "refresh cmdb entity caches in redis, optionally for a single business or cache type",
	Run:   refreshCmdb,
}

func init() {
	refreshCmdbCmd.Flags().IntVar(&refreshBizId, "biz-id", 0, "only refresh the given business")
	refreshCmdbCmd.Flags().StringVar(&refreshCacheType, "type", "", "only refresh the given cache type")
	rootCmd.AddCommand(refreshCmdbCmd)
}

func refreshCmdb(cmd *cobra.Command, args []string) {
	initService()

	store, err := newStore()
	if err != nil {
		logging.Fatalf("init redis failed: %v", err)
	}
	defer store.Close()

	cmdb, err := provider.NewCmdbProvider()
	if err != nil {
		logging.Fatalf("init cmdb provider failed: %v", err)
	}

	tenantIds, err := resolveTenantIds()
	if err != nil {
		logging.Fatalf("%v", err)
	}

	cacheTypes := cmdbcache.CacheTypes
	if refreshCacheType != "" {
		cacheTypes = []string{refreshCacheType}
	}

	ctx := context.Background()
	for _, bkTenantId := range tenantIds {
		for _, cacheType := range cacheTypes {
			manager, err := cmdbcache.NewCacheManagerByType(bkTenantId, store, cmdb, cacheType)
			if err != nil {
				logging.Fatalf("create cache manager failed: %v", err)
			}
			if refreshBizId != 0 {
				err = manager.RefreshByBiz(ctx, refreshBizId)
			} else {
				err = cmdbcache.RefreshAll(ctx, manager, cmdb, config.CmdbRefreshParallelism)
			}
			if err != nil {
				logging.Fatalf("refresh %s cache for tenant [%s] failed: %v", cacheType, bkTenantId, err)
			}
			logging.Infof("refresh %s cache for tenant [%s] done", cacheType, bkTenantId)
		}
	}
}
