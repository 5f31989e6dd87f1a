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
	"strings"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/spaceredis"
)

var pushSpaceUid string

var pushRouterCmd = &cobra.Command{
	Use:   "push-router",
	Short: "push space routers once",
	Long:  "push space to result table routers into redis, optionally for a single space uid like bkcc__2",
	Run:   pushRouter,
}

func init() {
	pushRouterCmd.Flags().StringVar(&pushSpaceUid, "space", "", "only push the given space, format {space_type}__{space_id}")
	rootCmd.AddCommand(pushRouterCmd)
}

func pushRouter(cmd *cobra.Command, args []string) {
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

	var spaceType, spaceId string
	if pushSpaceUid != "" {
		parts := strings.SplitN(pushSpaceUid, "__", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			logging.Fatalf("invalid space uid [%s], expect {space_type}__{space_id}", pushSpaceUid)
		}
		spaceType, spaceId = parts[0], parts[1]
	}

	ctx := context.Background()
	for _, bkTenantId := range tenantIds {
		pusher := spaceredis.NewSpacePusher(bkTenantId, store, meta)
		if pushSpaceUid != "" {
			err = pusher.PushSpaceTableIds(ctx, spaceType, spaceId, true)
		} else {
			err = pusher.PushAndPublishAllRouter(ctx)
		}
		if err != nil {
			logging.Fatalf("push router for tenant [%s] failed: %v", bkTenantId, err)
		}
		logging.Infof("push router for tenant [%s] done", bkTenantId)
	}
}
