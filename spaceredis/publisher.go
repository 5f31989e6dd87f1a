// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package spaceredis

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
	"github.com/TencentBlueKing/bk-monitor-space-router/logging"
	"github.com/TencentBlueKing/bk-monitor-space-router/models"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/redis"
	"github.com/TencentBlueKing/bk-monitor-space-router/store/rediskey"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/jsonx"
	"github.com/TencentBlueKing/bk-monitor-space-router/utils/slicex"
)

// PushDataLabelTableIds 推送数据标签及对应的结果表
func (s *SpacePusher) PushDataLabelTableIds(ctx context.Context, dataLabels, tableIds []string, isPublish bool) error {
	logging.Infof("start to push data_label table_id data, data_label_list [%v], table_id_list [%v]", dataLabels, tableIds)
	tableIds, err := s.refineTableIds(ctx, tableIds)
	if err != nil {
		return err
	}
	if len(tableIds) == 0 {
		return nil
	}
	rtList, err := s.meta.ListResultTables(ctx, s.bkTenantId, tableIds)
	if err != nil {
		return err
	}
	// 过滤掉结果表数据标签为空的记录
	labelTableIdsMap := make(map[string][]string)
	for _, rt := range rtList {
		if rt.DataLabel == nil || *rt.DataLabel == "" {
			continue
		}
		if len(dataLabels) != 0 && !slicex.IsExistItem(dataLabels, *rt.DataLabel) {
			continue
		}
		labelTableIdsMap[*rt.DataLabel] = append(labelTableIdsMap[*rt.DataLabel], rt.TableId)
	}
	if len(labelTableIdsMap) == 0 {
		return nil
	}

	labelData := make(map[string]string, len(labelTableIdsMap))
	var changedLabels []string
	for label, labelTableIds := range labelTableIdsMap {
		sort.Strings(labelTableIds)
		value, err := jsonx.MarshalString(labelTableIds)
		if err != nil {
			return errors.Wrapf(err, "marshal data_label [%s] table_ids failed", label)
		}
		labelData[label] = value
		changedLabels = append(changedLabels, label)
	}
	labelKey := rediskey.DataLabelToResultTableKey(s.bkTenantId)
	if err := s.store.HMSet(ctx, labelKey, labelData); err != nil {
		return err
	}
	if err := s.store.Expire(ctx, labelKey, redis.DefaultExpireDuration); err != nil {
		return err
	}
	if isPublish {
		sort.Strings(changedLabels)
		channel := rediskey.DataLabelToResultTableChannel(s.bkTenantId)
		if err := s.store.Publish(ctx, channel, strings.Join(changedLabels, "\n")); err != nil {
			return err
		}
	}
	logging.Infof("push redis data_label_to_result_table, count [%d]", len(labelData))
	return nil
}

// PushAllSpaceTableIds 推送全部空间的路由数据，spaceType为空时覆盖全部空间类型
// 按空间并发推送，变更的空间聚合为一次发布
func (s *SpacePusher) PushAllSpaceTableIds(ctx context.Context, spaceType string, isPublish bool) error {
	spaces, err := s.meta.ListSpaces(ctx, s.bkTenantId, spaceType)
	if err != nil {
		return errors.Wrap(err, "list spaces failed")
	}
	if len(spaces) == 0 {
		return nil
	}

	pool, err := ants.NewPool(config.RouterPushParallelism)
	if err != nil {
		return errors.Wrap(err, "create push worker pool failed")
	}
	defer pool.Release()

	var mu sync.Mutex
	var pushedSpaceUids []string
	wg := sync.WaitGroup{}
	for _, sp := range spaces {
		sp := sp
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.PushSpaceTableIds(ctx, sp.SpaceTypeId, sp.SpaceId, false); err != nil {
				logging.Errorf("push space [%s] to redis failed: %v", sp.SpaceUid(), err)
				return
			}
			mu.Lock()
			pushedSpaceUids = append(pushedSpaceUids, sp.SpaceUid())
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			logging.Errorf("submit push space [%s] task failed: %v", sp.SpaceUid(), submitErr)
		}
	}
	wg.Wait()

	if isPublish && len(pushedSpaceUids) != 0 {
		sort.Strings(pushedSpaceUids)
		channel := rediskey.SpaceToResultTableChannel(s.bkTenantId)
		if err := s.store.Publish(ctx, channel, strings.Join(pushedSpaceUids, "\n")); err != nil {
			return err
		}
	}
	logging.Infof("push all space table_ids success, space count [%d], pushed [%d]", len(spaces), len(pushedSpaceUids))
	return nil
}

// PushAndPublishAllRouter 推送并发布全量路由，包含空间路由、数据标签和结果表详情
func (s *SpacePusher) PushAndPublishAllRouter(ctx context.Context) error {
	if err := s.PushAllSpaceTableIds(ctx, models.SpaceTypeBKCC, true); err != nil {
		return err
	}
	if err := s.PushAllSpaceTableIds(ctx, models.SpaceTypeBKCI, true); err != nil {
		return err
	}
	if err := s.PushAllSpaceTableIds(ctx, models.SpaceTypeBKSAAS, true); err != nil {
		return err
	}
	if err := s.PushDataLabelTableIds(ctx, nil, nil, true); err != nil {
		return err
	}
	return s.PushTableIdDetail(ctx, nil, true)
}
