// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package cmdbcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
)

// fakeCmdb 测试用cmdb数据提供方
type fakeCmdb struct {
	businesses []provider.Business

	hosts     map[int][]provider.Host
	topo      map[int]*provider.TopoNode
	sets      map[int][]provider.Set
	modules   map[int][]provider.Module
	instances map[int][]provider.ServiceInstance

	// 指定业务的查询直接报错，模拟单业务刷新失败
	failedBiz map[int]struct{}
}

func newFakeCmdb() *fakeCmdb {
	return &fakeCmdb{
		hosts:     make(map[int][]provider.Host),
		topo:      make(map[int]*provider.TopoNode),
		sets:      make(map[int][]provider.Set),
		modules:   make(map[int][]provider.Module),
		instances: make(map[int][]provider.ServiceInstance),
		failedBiz: make(map[int]struct{}),
	}
}

func (f *fakeCmdb) checkBiz(bkBizId int) error {
	if _, ok := f.failedBiz[bkBizId]; ok {
		return errors.Errorf("cmdb request failed, biz: %d", bkBizId)
	}
	return nil
}

func (f *fakeCmdb) ListBusinesses(ctx context.Context, bkTenantId string) ([]provider.Business, error) {
	return f.businesses, nil
}

func (f *fakeCmdb) ListHostsByBiz(ctx context.Context, bkTenantId string, bkBizId int) ([]provider.Host, error) {
	if err := f.checkBiz(bkBizId); err != nil {
		return nil, err
	}
	return f.hosts[bkBizId], nil
}

func (f *fakeCmdb) GetTopoTree(ctx context.Context, bkTenantId string, bkBizId int) (*provider.TopoNode, error) {
	if err := f.checkBiz(bkBizId); err != nil {
		return nil, err
	}
	if tree, ok := f.topo[bkBizId]; ok {
		return tree, nil
	}
	return &provider.TopoNode{BkObjId: "biz", BkInstId: bkBizId}, nil
}

func (f *fakeCmdb) ListSets(ctx context.Context, bkTenantId string, bkBizId int) ([]provider.Set, error) {
	if err := f.checkBiz(bkBizId); err != nil {
		return nil, err
	}
	return f.sets[bkBizId], nil
}

func (f *fakeCmdb) ListModules(ctx context.Context, bkTenantId string, bkBizId int) ([]provider.Module, error) {
	if err := f.checkBiz(bkBizId); err != nil {
		return nil, err
	}
	return f.modules[bkBizId], nil
}

func (f *fakeCmdb) ListServiceInstances(ctx context.Context, bkTenantId string, bkBizId int) ([]provider.ServiceInstance, error) {
	if err := f.checkBiz(bkBizId); err != nil {
		return nil, err
	}
	return f.instances[bkBizId], nil
}

func newTestStore(t *testing.T) *redis.Instance {
	server := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: server.Addr()})
	return redis.NewInstanceWithClient(client)
}
