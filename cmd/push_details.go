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

	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/spaceredis"
)

var pushDetailTableIds []string

var pushDetailsCmd = &cobra.Command{
	Use:   "push-details",
	Short: "push result table details once",
	Long:  "push result table details and data label routers into redis, optionally for the given result tables",
	Run:   pushDetails,
}

func init() {
	pushDetailsCmd.Flags().StringSliceVar(&pushDetailTableIds, "table-id", nil, "only push the given result tables")
	rootCmd.AddCommand(pushDetailsCmd)
}

func pushDetails(cmd *cobra.Command, args []string) {
	initService()

	store, err := newStore()
	if err != nil {
		logging.Fatalf("init redis failed: %v", err)
	}
	defer store.Close()

	meta, err := newMetaStore()
	if err != nil {
		logging.Fatalf("init metadata store failed: %v", err)
	}

	tenantIds, err := resolveTenantIds()
	if err != nil {
		logging.Fatalf("%v", err)
	}

	ctx := context.Background()
	for _, bkTenantId := range tenantIds {
		pusher := spaceredis.NewSpacePusher(bkTenantId, store, meta)
		if err := pusher.PushTableIdDetail(ctx, pushDetailTableIds, true); err != nil {
			logging.Fatalf("push table detail for tenant [%s] failed: %v", bkTenantId, err)
		}
		if err := pusher.PushDataLabelTableIds(ctx, nil, pushDetailTableIds, true); err != nil {
			logging.Fatalf("push data label for tenant [%s] failed: %v", bkTenantId, err)
		}
		logging.Infof("push details for tenant [%s] done", bkTenantId)
	}
}
