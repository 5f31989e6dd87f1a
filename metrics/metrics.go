// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
)

var (
	// redis operation metrics
	redisCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "space_router_redis_count",
			Help: "redis operate count",
		},
		[]string{"key", "operation"},
	)

	// job metrics
	jobCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "space_router_job_count",
			Help: "job run count",
		},
		[]string{"name", "status"},
	)

	jobCostTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "space_router_job_cost",
			Help: "job run cost time",
		},
		[]string{"name"},
	)

	// 被丢弃的实体数量，reason 标识丢弃原因
	entriesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "space_router_entries_dropped_total",
			Help: "entries dropped during refresh",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(redisCount, jobCount, jobCostTime, entriesDropped)
}

// RedisCount redis operate count metric
func RedisCount(key, operation string) error {
	metric, err := redisCount.GetMetricWithLabelValues(key, operation)
	if err != nil {
		logging.Errorf("prom get redis count metric failed: %v", err)
		return err
	}
	metric.Inc()
	return nil
}

// JobStatusCount job run count metric
func JobStatusCount(name, status string) error {
	metric, err := jobCount.GetMetricWithLabelValues(name, status)
	if err != nil {
		logging.Errorf("prom get job count metric failed: %v", err)
		return err
	}
	metric.Inc()
	return nil
}

// JobCostTime cost time of job
func JobCostTime(name string, startTime time.Time) error {
	metric, err := jobCostTime.GetMetricWithLabelValues(name)
	if err != nil {
		logging.Errorf("prom get job cost metric failed: %v", err)
		return err
	}
	metric.Set(time.Since(startTime).Seconds())
	return nil
}

// EntriesDropped dropped entries count metric
func EntriesDropped(reason string) error {
	metric, err := entriesDropped.GetMetricWithLabelValues(reason)
	if err != nil {
		logging.Errorf("prom get entries dropped metric failed: %v", err)
		return err
	}
	metric.Inc()
	return nil
}
