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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the space router worker",
	Long:  "refresh cmdb caches and push space routers periodically until interrupted",
	Run:   startWorker,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func startWorker(cmd *cobra.Command, args []string) {
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

	cmdb, err := provider.NewCmdbProvider()
	if err != nil {
		logging.Fatalf("init cmdb provider failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, store, cmdb, meta)
	if err := sched.Start(); err != nil {
		logging.Fatalf("start scheduler failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	for {
		switch <-interrupt {
		case syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT:
			logging.Info("signal received, stopping worker")
			sched.Stop()
			return
		}
	}
}
