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
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func newTestInstance(t *testing.T) (*Instance, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: server.Addr()})
	return NewInstanceWithClient(client), server
}

func TestHashOps(t *testing.T) {
	store, _ := newTestInstance(t)
	ctx := context.Background()

	assert.NoError(t, store.HSet(ctx, "test_hash", "f1", "v1"))
	assert.NoError(t, store.HMSet(ctx, "test_hash", map[string]string{"f2": "v2", "f3": "v3"}))

	value, err := store.HGet(ctx, "test_hash", "f1")
	assert.NoError(t, err)
	assert.Equal(t, "v1", value)

	// 不存在的字段返回空字符串而非错误
	value, err = store.HGet(ctx, "test_hash", "missing")
	assert.NoError(t, err)
	assert.Equal(t, "", value)

	values, err := store.HMGet(ctx, "test_hash", "f2", "missing", "f3")
	assert.NoError(t, err)
	assert.Equal(t, []string{"v2", "", "v3"}, values)

	fields, err := store.HKeys(ctx, "test_hash")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"f1", "f2", "f3"}, fields)

	assert.NoError(t, store.HDel(ctx, "test_hash", "f1", "f2"))
	fields, err = store.HKeys(ctx, "test_hash")
	assert.NoError(t, err)
	assert.Equal(t, []string{"f3"}, fields)
}

func TestPipelineBatching(t *testing.T) {
	store, server := newTestInstance(t)
	ctx := context.Background()

	// 超出单管道批次上限的写入需要全部生效
	pipeline := store.Pipeline()
	total := PipelineBatchSize + 500
	for i := 0; i < total; i++ {
		assert.NoError(t, pipeline.HSet(ctx, "big_hash", fmt.Sprintf("field_%d", i), "v"))
	}
	assert.NoError(t, pipeline.Expire(ctx, "big_hash", DefaultExpireDuration))
	assert.NoError(t, pipeline.Exec(ctx))

	fields, err := store.HKeys(ctx, "big_hash")
	assert.NoError(t, err)
	assert.Equal(t, total, len(fields))
	assert.Greater(t, server.TTL("big_hash"), time.Duration(0))
}

func TestExpireAndDelete(t *testing.T) {
	store, server := newTestInstance(t)
	ctx := context.Background()

	assert.NoError(t, store.HSet(ctx, "expiring", "f", "v"))
	assert.NoError(t, store.Expire(ctx, "expiring", time.Hour))
	assert.Equal(t, time.Hour, server.TTL("expiring"))

	assert.NoError(t, store.Delete(ctx, "expiring"))
	assert.False(t, server.Exists("expiring"))
}

func TestShareLock(t *testing.T) {
	store, server := newTestInstance(t)
	ctx := context.Background()

	lock := NewShareLock(store, "lock.test_job", time.Minute)
	ok, err := lock.TryLock(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)

	held, err := lock.IsHeld(ctx)
	assert.NoError(t, err)
	assert.True(t, held)

	// 锁被占用时其他执行者获取失败且不等待
	other := NewShareLock(store, "lock.test_job", time.Minute)
	ok, err = other.TryLock(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)

	// 非持有者释放无效
	assert.NoError(t, other.Unlock(ctx))
	assert.True(t, server.Exists("lock.test_job"))

	assert.NoError(t, lock.Unlock(ctx))
	assert.False(t, server.Exists("lock.test_job"))

	ok, err = other.TryLock(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
}
