// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package redis

import (
	"context"
	"time"

	goRedis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/metrics"
)

// releaseLockScript 仅持有者可释放锁
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// ShareLock 基于 SET NX EX 的分布式锁，保证同名任务同一时刻只有一个执行者
type ShareLock struct {
	store *Instance
	name  string
	ttl   time.Duration
	token string
}

// NewShareLock 创建分布式锁
func NewShareLock(store *Instance, name string, ttl time.Duration) *ShareLock {
	return &ShareLock{
		store: store,
		name:  name,
		ttl:   ttl,
		token: uuid.NewString(),
	}
}

// TryLock 尝试获取锁，锁被占用时返回false而非等待
func (l *ShareLock) TryLock(ctx context.Context) (bool, error) {
	metrics.RedisCount(l.name, "SetNX")
	ok, err := l.store.client.SetNX(ctx, l.name, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "acquire lock [%s] failed", l.name)
	}
	return ok, nil
}

// IsHeld 判断当前执行者是否仍持有锁
func (l *ShareLock) IsHeld(ctx context.Context) (bool, error) {
	value, err := l.store.client.Get(ctx, l.name).Result()
	if err != nil {
		if errors.Is(err, goRedis.Nil) {
			return false, nil
		}
		return false, errors.Wrapf(err, "check lock [%s] failed", l.name)
	}
	return value == l.token, nil
}

// Unlock 释放锁，仅当仍为持有者时生效
func (l *ShareLock) Unlock(ctx context.Context) error {
	if err := l.store.client.Eval(ctx, releaseLockScript, []string{l.name}, l.token).Err(); err != nil {
		return errors.Wrapf(err, "release lock [%s] failed", l.name)
	}
	return nil
}
