// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package cmd 命令入口
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider/metastore"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/mysql"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/tenant"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

var (
	// tenantId 指定操作的租户，为空时处理全部租户
	tenantId string
)

var rootCmd = &cobra.Command{
	Use:   "space-router",
	Short: "bk-monitor space router",
	Long:  "push space to result table routers and cmdb caches into redis for unify-query",
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&config.ConfigPath, "config", "c", config.ConfigPath, "path of project service config files")
	rootCmd.PersistentFlags().StringVar(&tenantId, "tenant", "", "only process the given tenant, default to all tenants")
}

// initService 初始化配置与日志，所有子命令的公共前置
func initService() {
	config.InitConfig()
	logging.InitLogger(logging.Options{
		Level:        config.LoggerLevel,
		EnableStdout: config.LoggerEnabledStdout,
		Path:         config.LoggerStdoutPath,
		MaxSize:      config.LoggerStdoutFileMaxSize,
		MaxAge:       config.LoggerStdoutFileMaxAge,
		MaxBackups:   config.LoggerStdoutFileMaxBackups,
	})
}

// newStore 创建redis实例
func newStore() (*redis.Instance, error) {
	store, err := redis.NewInstance(redis.GetOptionsFromConfig())
	if err != nil {
		return nil, errors.Wrap(err, "connect to redis failed")
	}
	return store, nil
}

// newMetaStore 创建metadata数据库访问层
func newMetaStore() (*metastore.MetaStore, error) {
	db, err := mysql.NewConnection(mysql.GetOptionsFromConfig())
	if err != nil {
		return nil, errors.Wrap(err, "connect to mysql failed")
	}
	return metastore.New(db), nil
}

// resolveTenantIds 根据 --tenant 参数决定要处理的租户列表
func resolveTenantIds() ([]string, error) {
	if tenantId == "" {
		return tenant.ListTenantId(), nil
	}
	if !slicex.IsExistItem(tenant.ListTenantId(), tenantId) {
		return nil, errors.Errorf("unknown tenant [%s]", tenantId)
	}
	return []string{tenantId}, nil
}
