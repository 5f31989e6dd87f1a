// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package redis 提供redis存储门面，封装hash读写、管道批量提交与发布订阅
package redis

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	goRedis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/metrics"
)

const (
	// DefaultExpireDuration 缓存key默认过期时间
	DefaultExpireDuration = 24 * time.Hour
	// PipelineBatchSize 单个管道最大命令数量，超过则分批提交
	PipelineBatchSize = 1000
)

// Options redis连接参数
type Options struct {
	Mode string `json:"mode" mapstructure:"mode"`

	Addrs    []string `json:"addrs" mapstructure:"addrs"`
	Username string   `json:"username" mapstructure:"username"`
	Password string   `json:"password" mapstructure:"password"`

	SentinelUsername string `json:"sentinel_username" mapstructure:"sentinel_username"`
	SentinelPassword string `json:"sentinel_password" mapstructure:"sentinel_password"`
	MasterName       string `json:"master_name" mapstructure:"master_name"`

	DB          int `json:"db" mapstructure:"db"`
	DialTimeout int `json:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout int `json:"read_timeout" mapstructure:"read_timeout"`
}

// GetOptionsFromConfig 从全局配置构造redis连接参数
func GetOptionsFromConfig() *Options {
	return &Options{
		Mode:             config.StorageRedisMode,
		Addrs:            config.StorageRedisAddress,
		Username:         config.StorageRedisUsername,
		Password:         config.StorageRedisPassword,
		SentinelUsername: config.StorageRedisSentinelUsername,
		SentinelPassword: config.StorageRedisSentinelPassword,
		MasterName:       config.StorageRedisSentinelMasterName,
		DB:               config.StorageRedisDatabase,
		DialTimeout:      config.StorageRedisDialTimeout,
		ReadTimeout:      config.StorageRedisReadTimeout,
	}
}

// GetClient 按模式创建redis客户端
func GetClient(opt *Options) (goRedis.UniversalClient, error) {
	var client goRedis.UniversalClient
	dialTimeout := time.Duration(opt.DialTimeout) * time.Second
	readTimeout := time.Duration(opt.ReadTimeout) * time.Second

	switch opt.Mode {
	case "standalone", "":
		client = goRedis.NewUniversalClient(&goRedis.UniversalOptions{
			Addrs:       opt.Addrs,
			Username:    opt.Username,
			Password:    opt.Password,
			DB:          opt.DB,
			DialTimeout: dialTimeout,
			ReadTimeout: readTimeout,
		})
	case "sentinel":
		client = goRedis.NewUniversalClient(&goRedis.UniversalOptions{
			Addrs:            opt.Addrs,
			SentinelUsername: opt.SentinelUsername,
			SentinelPassword: opt.SentinelPassword,
			MasterName:       opt.MasterName,
			Username:         opt.Username,
			Password:         opt.Password,
			DB:               opt.DB,
			DialTimeout:      dialTimeout,
			ReadTimeout:      readTimeout,
		})
	case "cluster":
		client = goRedis.NewClusterClient(&goRedis.ClusterOptions{
			Addrs:       opt.Addrs,
			Username:    opt.Username,
			Password:    opt.Password,
			DialTimeout: dialTimeout,
			ReadTimeout: readTimeout,
		})
	default:
		return nil, errors.Errorf("invalid redis mode: %s", opt.Mode)
	}

	err := retry.Do(
		func() error {
			_, err := client.Ping(context.Background()).Result()
			return err
		},
		retry.Attempts(3),
		retry.Delay(1*time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(err, "ping redis failed")
	}
	return client, nil
}

// Instance redis存储实例
type Instance struct {
	client goRedis.UniversalClient
}

// NewInstance 基于配置创建存储实例
func NewInstance(opt *Options) (*Instance, error) {
	client, err := GetClient(opt)
	if err != nil {
		return nil, err
	}
	return &Instance{client: client}, nil
}

// NewInstanceWithClient 基于已有客户端创建存储实例，测试场景注入miniredis客户端
func NewInstanceWithClient(client goRedis.UniversalClient) *Instance {
	return &Instance{client: client}
}

// Client 返回底层客户端
func (r *Instance) Client() goRedis.UniversalClient {
	return r.client
}

// Close 关闭连接
func (r *Instance) Close() error {
	return r.client.Close()
}

// HSet 设置hash单个字段
func (r *Instance) HSet(ctx context.Context, key, field, value string) error {
	metrics.RedisCount(key, "HSet")
	if err := r.client.HSet(ctx, key, field, value).Err(); err != nil {
		return errors.Wrapf(err, "hset key [%s] field [%s] failed", key, field)
	}
	return nil
}

// HMSet 批量设置hash字段，超过批次大小时分管道提交
func (r *Instance) HMSet(ctx context.Context, key string, data map[string]string) error {
	if len(data) == 0 {
		return nil
	}
	metrics.RedisCount(key, "HMSet")

	pipeline := r.Pipeline()
	for field, value := range data {
		if err := pipeline.HSet(ctx, key, field, value); err != nil {
			return err
		}
	}
	return pipeline.Exec(ctx)
}

// HGet 读取hash单个字段，字段不存在时返回空字符串
func (r *Instance) HGet(ctx context.Context, key, field string) (string, error) {
	metrics.RedisCount(key, "HGet")
	value, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, goRedis.Nil) {
			return "", nil
		}
		return "", errors.Wrapf(err, "hget key [%s] field [%s] failed", key, field)
	}
	return value, nil
}

// HMGet 批量读取hash字段，缺失字段对应位置为空字符串
func (r *Instance) HMGet(ctx context.Context, key string, fields ...string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	metrics.RedisCount(key, "HMGet")
	values, err := r.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "hmget key [%s] failed", key)
	}
	result := make([]string, len(values))
	for i, value := range values {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			result[i] = s
		}
	}
	return result, nil
}

// HGetAll 读取hash全部字段
func (r *Instance) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	metrics.RedisCount(key, "HGetAll")
	result, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "hgetall key [%s] failed", key)
	}
	return result, nil
}

// HKeys 读取hash全部字段名
func (r *Instance) HKeys(ctx context.Context, key string) ([]string, error) {
	metrics.RedisCount(key, "HKeys")
	fields, err := r.client.HKeys(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "hkeys key [%s] failed", key)
	}
	return fields, nil
}

// HDel 删除hash字段，超过批次大小时分批删除
func (r *Instance) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	metrics.RedisCount(key, "HDel")
	for start := 0; start < len(fields); start += PipelineBatchSize {
		end := start + PipelineBatchSize
		if end > len(fields) {
			end = len(fields)
		}
		if err := r.client.HDel(ctx, key, fields[start:end]...).Err(); err != nil {
			return errors.Wrapf(err, "hdel key [%s] failed", key)
		}
	}
	return nil
}

// Delete 删除key
func (r *Instance) Delete(ctx context.Context, key string) error {
	metrics.RedisCount(key, "Delete")
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "delete key [%s] failed", key)
	}
	return nil
}

// Expire 设置key过期时间
func (r *Instance) Expire(ctx context.Context, key string, ttl time.Duration) error {
	metrics.RedisCount(key, "Expire")
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return errors.Wrapf(err, "expire key [%s] failed", key)
	}
	return nil
}

// Publish 发布变更消息
func (r *Instance) Publish(ctx context.Context, channel, message string) error {
	metrics.RedisCount(channel, "Publish")
	if err := r.client.Publish(ctx, channel, message).Err(); err != nil {
		return errors.Wrapf(err, "publish channel [%s] failed", channel)
	}
	return nil
}

// Pipeline 创建管道，命令数量超过批次大小时自动分批提交
func (r *Instance) Pipeline() *Pipeline {
	return &Pipeline{pipeliner: r.client.Pipeline()}
}

// Pipeline 管道批量写入器
type Pipeline struct {
	pipeliner goRedis.Pipeliner
}

func (p *Pipeline) flushIfFull(ctx context.Context) error {
	if p.pipeliner.Len() < PipelineBatchSize {
		return nil
	}
	if _, err := p.pipeliner.Exec(ctx); err != nil {
		return errors.Wrap(err, "exec pipeline failed")
	}
	return nil
}

// HSet 管道内设置hash字段
func (p *Pipeline) HSet(ctx context.Context, key, field, value string) error {
	p.pipeliner.HSet(ctx, key, field, value)
	return p.flushIfFull(ctx)
}

// HDel 管道内删除hash字段
func (p *Pipeline) HDel(ctx context.Context, key string, fields ...string) error {
	p.pipeliner.HDel(ctx, key, fields...)
	return p.flushIfFull(ctx)
}

// Expire 管道内设置key过期时间
func (p *Pipeline) Expire(ctx context.Context, key string, ttl time.Duration) error {
	p.pipeliner.Expire(ctx, key, ttl)
	return p.flushIfFull(ctx)
}

// Exec 提交剩余命令
func (p *Pipeline) Exec(ctx context.Context) error {
	if p.pipeliner.Len() == 0 {
		return nil
	}
	if _, err := p.pipeliner.Exec(ctx); err != nil {
		return errors.Wrap(err, "exec pipeline failed")
	}
	return nil
}
