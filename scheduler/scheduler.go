// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package scheduler 定时驱动缓存刷新与路由推送，分布式锁保证多副本下同名任务只有一个执行者
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/TencentBlueKing/bk-monitor-space-router/cmdbcache"
	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/metrics"
	"github.com/TencentBlueKing/bk-monitor-space-router/provider"
	"github.com/TencentBlueKing/bk-monitor-space-router/spaceredis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/tenant"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

const (
	defaultCmdbRefreshCron = "*/10 * * * *"
	defaultRouterPushCron  = "*/30 * * * *"
)

// Scheduler 任务调度器
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	cron  *cron.Cron
	store *redis.Instance
	cmdb  provider.CmdbProvider
	meta  provider.MetadataProvider
}

// New 创建任务调度器
func New(ctx context.Context, store *redis.Instance, cmdb provider.CmdbProvider, meta provider.MetadataProvider) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		cron:   cron.New(),
		store:  store,
		cmdb:   cmdb,
		meta:   meta,
	}
}

// Start 注册任务并启动调度
func (s *Scheduler) Start() error {
	for _, cacheType := range cmdbcache.CacheTypes {
		cacheType := cacheType
		jobName := fmt.Sprintf("cmdb_cache_refresh_%s", cacheType)
		err := s.addJob(jobName, config.GetJobCron("cmdbCacheRefresh", defaultCmdbRefreshCron), func(ctx context.Context) error {
			return s.refreshCmdbCache(ctx, cacheType)
		})
		if err != nil {
			return err
		}
	}

	if err := s.addJob("push_space_router", config.GetJobCron("pushSpaceRouter", defaultRouterPushCron), s.pushSpaceRouter); err != nil {
		return err
	}
	if err := s.addJob("push_data_label", config.GetJobCron("pushDataLabel", defaultRouterPushCron), s.pushDataLabel); err != nil {
		return err
	}
	if err := s.addJob("push_table_detail", config.GetJobCron("pushTableDetail", defaultRouterPushCron), s.pushTableDetail); err != nil {
		return err
	}

	s.cron.Start()
	logging.Infof("scheduler started, job count [%d]", len(s.cron.Entries()))
	return nil
}

// Stop 停止调度并等待执行中的任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	logging.Infof("scheduler stopped")
}

// addJob 注册定时任务，锁的有效期与调度间隔一致
func (s *Scheduler) addJob(name, spec string, fn func(context.Context) error) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return errors.Wrapf(err, "invalid cron spec [%s] for job [%s]", spec, name)
	}
	next := schedule.Next(time.Now())
	interval := schedule.Next(next).Sub(next)

	if _, err := s.cron.AddFunc(spec, func() { s.runJob(name, interval, fn) }); err != nil {
		return errors.Wrapf(err, "add job [%s] failed", name)
	}
	return nil
}

// runJob 执行单个任务，锁被占用时跳过本轮
func (s *Scheduler) runJob(name string, interval time.Duration, fn func(context.Context) error) {
	if slicex.IsExistItem(config.DisableCmdbCacheRefresh, name) {
		logging.Infof("job [%s] is disabled, skip", name)
		return
	}
	lock := redis.NewShareLock(s.store, rediskey.JobLockKey(name), interval)
	ok, err := lock.TryLock(s.ctx)
	if err != nil {
		logging.Errorf("job [%s] acquire lock failed: %v", name, err)
		return
	}
	if !ok {
		metrics.JobStatusCount(name, "skipped")
		logging.Infof("job [%s] lock is held by another worker, skip", name)
		return
	}

	startTime := time.Now()
	logging.Infof("job [%s] start", name)
	if err := fn(s.ctx); err != nil {
		metrics.JobStatusCount(name, "failure")
		logging.Errorf("job [%s] failed: %v", name, err)
	} else {
		metrics.JobStatusCount(name, "success")
		logging.Infof("job [%s] success, cost [%s]", name, time.Since(startTime))
	}
	metrics.JobCostTime(name, startTime)

	// 锁过期意味着本轮结果可能与其他副本交叠，仅记录告警
	if held, err := lock.IsHeld(s.ctx); err == nil && !held {
		logging.Warnf("job [%s] lock lost during execution", name)
		return
	}
	if err := lock.Unlock(s.ctx); err != nil {
		logging.Errorf("job [%s] release lock failed: %v", name, err)
	}
}

// refreshCmdbCache 刷新全部租户下指定类型的cmdb缓存
func (s *Scheduler) refreshCmdbCache(ctx context.Context, cacheType string) error {
	for _, bkTenantId := range tenant.ListTenantId() {
		manager, err := cmdbcache.NewCacheManagerByType(bkTenantId, s.store, s.cmdb, cacheType)
		if err != nil {
			return err
		}
		if err := cmdbcache.RefreshAll(ctx, manager, s.cmdb, config.CmdbRefreshParallelism); err != nil {
			return errors.Wrapf(err, "refresh %s cache for tenant [%s] failed", cacheType, bkTenantId)
		}
	}
	return nil
}

// pushSpaceRouter 推送全部租户的空间路由
func (s *Scheduler) pushSpaceRouter(ctx context.Context) error {
	for _, bkTenantId := range tenant.ListTenantId() {
		pusher := spaceredis.NewSpacePusher(bkTenantId, s.store, s.meta)
		if err := pusher.PushAllSpaceTableIds(ctx, "", true); err != nil {
			return errors.Wrapf(err, "push space router for tenant [%s] failed", bkTenantId)
		}
	}
	return nil
}

// pushDataLabel 推送全部租户的数据标签路由
func (s *Scheduler) pushDataLabel(ctx context.Context) error {
	for _, bkTenantId := range tenant.ListTenantId() {
		pusher := spaceredis.NewSpacePusher(bkTenantId, s.store, s.meta)
		if err := pusher.PushDataLabelTableIds(ctx, nil, nil, true); err != nil {
			return errors.Wrapf(err, "push data label for tenant [%s] failed", bkTenantId)
		}
	}
	return nil
}

// pushTableDetail 推送全部租户的结果表详情
func (s *Scheduler) pushTableDetail(ctx context.Context) error {
	for _, bkTenantId := range tenant.ListTenantId() {
		pusher := spaceredis.NewSpacePusher(bkTenantId, s.store, s.meta)
		if err := pusher.PushTableIdDetail(ctx, nil, true); err != nil {
			return errors.Wrapf(err, "push table detail for tenant [%s] failed", bkTenantId)
		}
	}
	return nil
}
