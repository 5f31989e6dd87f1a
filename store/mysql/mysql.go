// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package mysql 元数据库连接管理
package mysql

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/pkg/errors"

	"github.com/TencentBlueKing/bk-monitor-space-router/config"
)

// Options mysql连接参数
type Options struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	DbName   string `json:"db_name" mapstructure:"db_name"`
	Charset  string `json:"charset" mapstructure:"charset"`

	MaxIdleConnections int  `json:"max_idle_connections" mapstructure:"max_idle_connections"`
	MaxOpenConnections int  `json:"max_open_connections" mapstructure:"max_open_connections"`
	Debug              bool `json:"debug" mapstructure:"debug"`
}

// GetOptionsFromConfig 从全局配置构造mysql连接参数
func GetOptionsFromConfig() *Options {
	return &Options{
		Host:               config.StorageMysqlHost,
		Port:               config.StorageMysqlPort,
		User:               config.StorageMysqlUser,
		Password:           config.StorageMysqlPassword,
		DbName:             config.StorageMysqlDbName,
		Charset:            config.StorageMysqlCharset,
		MaxIdleConnections: config.StorageMysqlMaxIdleConnections,
		MaxOpenConnections: config.StorageMysqlMaxOpenConnections,
		Debug:              config.StorageMysqlDebug,
	}
}

// NewConnection 建立数据库连接
func NewConnection(opt *Options) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
		opt.User, opt.Password, opt.Host, opt.Port, opt.DbName, opt.Charset,
	)
	db, err := gorm.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connect mysql [%s:%d/%s] failed", opt.Host, opt.Port, opt.DbName)
	}

	db.DB().SetMaxIdleConns(opt.MaxIdleConnections)
	db.DB().SetMaxOpenConns(opt.MaxOpenConnections)
	db.LogMode(opt.Debug)
	return db, nil
}
