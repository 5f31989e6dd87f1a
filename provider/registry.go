// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package provider

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	cmdbFactoryMut sync.RWMutex
	cmdbFactory    func() (CmdbProvider, error)
)

// RegisterCmdbProvider 注册cmdb数据提供方的构造器
// cmdb接入方式因部署环境而异，由接入方在进程初始化时注册具体实现
func RegisterCmdbProvider(factory func() (CmdbProvider, error)) {
	cmdbFactoryMut.Lock()
	defer cmdbFactoryMut.Unlock()
	cmdbFactory = factory
}

// NewCmdbProvider 创建已注册的cmdb数据提供方
func NewCmdbProvider() (CmdbProvider, error) {
	cmdbFactoryMut.RLock()
	defer cmdbFactoryMut.RUnlock()
	if cmdbFactory == nil {
		return nil, errors.New("cmdb provider is not registered")
	}
	return cmdbFactory()
}
