// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/exp/slices"

	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
)

var (
	// ConfigPath 配置文件路径
	ConfigPath = "./space-router.yaml"
	// EnvKeyPrefix 环境变量前缀
	EnvKeyPrefix = "space_router"

	LoggerEnabledStdout        bool
	LoggerLevel                string
	LoggerStdoutPath           string
	LoggerStdoutFileMaxSize    int
	LoggerStdoutFileMaxAge     int
	LoggerStdoutFileMaxBackups int

	StorageRedisMode               string
	StorageRedisAddress            []string
	StorageRedisUsername           string
	StorageRedisPassword           string
	StorageRedisSentinelMasterName string
	StorageRedisSentinelUsername   string
	StorageRedisSentinelPassword   string
	StorageRedisDatabase           int
	StorageRedisDialTimeout        int
	StorageRedisReadTimeout        int

	StorageMysqlHost               string
	StorageMysqlPort               int
	StorageMysqlUser               string
	StorageMysqlPassword           string
	StorageMysqlDbName             string
	StorageMysqlCharset            string
	StorageMysqlMaxIdleConnections int
	StorageMysqlMaxOpenConnections int
	StorageMysqlDebug              bool

	// DefaultTenantId 默认租户，使用遗留的缓存key布局
	DefaultTenantId string
	// TenantIdList 需要刷新缓存的租户列表
	TenantIdList []string

	// CmdbCacheExpireSeconds cmdb 缓存过期时间
	CmdbCacheExpireSeconds int
	// CmdbRefreshParallelism 按业务刷新缓存的并发数量
	CmdbRefreshParallelism int
	// DisableCmdbCacheRefresh 禁用的缓存刷新任务名称列表
	DisableCmdbCacheRefresh []string

	// GlobalIsRestrictDsBelongSpace 是否限制数据源归属具体空间
	GlobalIsRestrictDsBelongSpace bool
	// GlobalAccessDbmRtSpaceUid 允许访问 dbm 结果表的空间 UID
	GlobalAccessDbmRtSpaceUid []string
	// GlobalTimeSeriesMetricExpiredSeconds 自定义指标过期时间
	GlobalTimeSeriesMetricExpiredSeconds int

	// RouterPushParallelism 空间路由批量推送并发数量
	RouterPushParallelism int
)

var keys []string

func init() {
	// 默认配置兜底，InitConfig 之前也可读取到合理的默认值
	initVariables()
}

// GetValue 从viper获取配置项，未配置时返回默认值；可传入特定类型的getter
func GetValue[T any](key string, def T, getter ...func(string) T) T {
	if !slices.Contains(keys, strings.ToLower(key)) {
		return def
	}

	if len(getter) != 0 {
		return getter[0](key)
	}

	value := viper.Get(key)
	if value == nil {
		logging.Warnf("null configuration item(%s) was found, check whether it is correct", key)
		return def
	}

	// viper 读出的切片元素类型不定，按默认值类型逐个转换
	if reflect.TypeOf(value).Kind() == reflect.Slice {
		valueSlice := reflect.ValueOf(value)
		resultSlice := reflect.MakeSlice(reflect.TypeOf(def), valueSlice.Len(), valueSlice.Len())
		for i := 0; i < valueSlice.Len(); i++ {
			item := reflect.ValueOf(valueSlice.Index(i).Interface())
			if !item.Type().ConvertibleTo(resultSlice.Index(i).Type()) {
				logging.Warnf("configuration item(%s) element type mismatch, use default", key)
				return def
			}
			resultSlice.Index(i).Set(item.Convert(resultSlice.Index(i).Type()))
		}
		return resultSlice.Interface().(T)
	}

	result, ok := value.(T)
	if !ok {
		converted := reflect.ValueOf(value)
		target := reflect.TypeOf(def)
		if converted.Type().ConvertibleTo(target) {
			return converted.Convert(target).Interface().(T)
		}
		logging.Warnf("configuration item(%s) type mismatch, use default", key)
		return def
	}
	return result
}

func initVariables() {
	// LoggerEnabledStdout 是否开启日志文件输出
	LoggerEnabledStdout = GetValue("log.enableStdout", true)
	// LoggerLevel 日志等级
	LoggerLevel = GetValue("log.level", "info")
	// LoggerStdoutPath 日志文件输出路径
	LoggerStdoutPath = GetValue("log.stdoutPath", "./space-router.log")
	LoggerStdoutFileMaxSize = GetValue("log.stdoutFileMaxSize", 200)
	LoggerStdoutFileMaxAge = GetValue("log.stdoutFileMaxAge", 1)
	LoggerStdoutFileMaxBackups = GetValue("log.stdoutFileMaxBackups", 5)

	/* Storage Redis 配置 */
	StorageRedisMode = GetValue("store.redis.mode", "standalone")
	StorageRedisAddress = GetValue("store.redis.address", []string{"127.0.0.1:6379"})
	StorageRedisUsername = GetValue("store.redis.username", "")
	StorageRedisPassword = GetValue("store.redis.password", "")
	StorageRedisSentinelMasterName = GetValue("store.redis.sentinel.masterName", "")
	StorageRedisSentinelUsername = GetValue("store.redis.sentinel.username", "")
	StorageRedisSentinelPassword = GetValue("store.redis.sentinel.password", "")
	StorageRedisDatabase = GetValue("store.redis.db", 0)
	StorageRedisDialTimeout = GetValue("store.redis.dialTimeout", 10)
	StorageRedisReadTimeout = GetValue("store.redis.readTimeout", 30)

	/* Storage Mysql 配置 */
	StorageMysqlHost = GetValue("store.mysql.host", "127.0.0.1")
	StorageMysqlPort = GetValue("store.mysql.port", 3306)
	StorageMysqlUser = GetValue("store.mysql.user", "root")
	StorageMysqlPassword = GetValue("store.mysql.password", "")
	StorageMysqlDbName = GetValue("store.mysql.dbName", "")
	StorageMysqlCharset = GetValue("store.mysql.charset", "utf8")
	StorageMysqlMaxIdleConnections = GetValue("store.mysql.maxIdleConnections", 10)
	StorageMysqlMaxOpenConnections = GetValue("store.mysql.maxOpenConnections", 100)
	StorageMysqlDebug = GetValue("store.mysql.debug", false)

	/* 租户配置 */
	DefaultTenantId = GetValue("tenant.defaultTenantId", "system")
	TenantIdList = GetValue("tenant.tenantIdList", []string{DefaultTenantId})

	/* cmdb 缓存配置 */
	CmdbCacheExpireSeconds = GetValue("taskConfig.cmdb.cacheExpireSeconds", 24*3600)
	CmdbRefreshParallelism = GetValue("taskConfig.cmdb.refreshParallelism", 10)
	DisableCmdbCacheRefresh = GetValue("taskConfig.cmdb.disableCacheRefresh", []string{})

	/* 空间路由配置 */
	GlobalIsRestrictDsBelongSpace = GetValue("taskConfig.space.global.isRestrictDsBelongSpace", true)
	GlobalAccessDbmRtSpaceUid = GetValue("taskConfig.space.global.accessDbmRtSpaceUid", []string{})
	GlobalTimeSeriesMetricExpiredSeconds = GetValue("taskConfig.space.global.timeSeriesMetricExpiredSeconds", 30*24*3600)
	RouterPushParallelism = GetValue("taskConfig.space.pushParallelism", 10)
}

// GetJobCron 获取指定任务的调度cron表达式
func GetJobCron(jobName, def string) string {
	return GetValue("scheduler.cron."+jobName, def)
}

// InitConfig 读取配置文件并初始化配置项
func InitConfig() {
	viper.SetConfigFile(ConfigPath)
	viper.SetEnvPrefix(EnvKeyPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Warnf("read config file: %s failed, use default config, error: %s", ConfigPath, err)
	}

	keys = keys[:0]
	for _, key := range viper.AllKeys() {
		keys = append(keys, strings.ToLower(key))
	}

	initVariables()
}
