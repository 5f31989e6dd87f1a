// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package slicex

import (
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/constraints"
)

// RemoveDuplicate 可排序类型的去重，保持首次出现的顺序
func RemoveDuplicate[T constraints.Ordered](source []T) []T {
	temp := make(map[T]bool)
	var target []T
	for _, s := range source {
		if exist := temp[s]; !exist {
			target = append(target, s)
			temp[s] = true
		}
	}
	return target
}

// IsExistItem 判断item是否存在列表中
func IsExistItem[T constraints.Ordered](itemList []T, item T) bool {
	for _, t := range itemList {
		if t == item {
			return true
		}
	}
	return false
}

// List2Set 列表转集合
func List2Set[T comparable](items []T) mapset.Set[T] {
	s := mapset.NewSet[T]()
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Set2List 集合转列表
func Set2List[T comparable](s mapset.Set[T]) []T {
	return s.ToSlice()
}

// ChunkSlice 按批次切分列表，size 小于等于 0 时使用默认批次大小
func ChunkSlice[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 500
	}
	var chunks [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
