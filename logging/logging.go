// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package logging 提供进程级日志能力，基于 zap + lumberjack 文件切割
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志配置
type Options struct {
	Level         string
	EnableStdout  bool
	Path          string
	MaxSize       int
	MaxAge        int
	MaxBackups    int
}

var (
	sugar    *zap.SugaredLogger
	initOnce sync.Once
)

func init() {
	// 未初始化时默认输出到控制台，避免测试场景空指针
	sugar = newLogger(Options{Level: "info", EnableStdout: false}).Sugar()
}

func newLogger(opt Options) *zap.Logger {
	level, err := zapcore.ParseLevel(opt.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	var syncer zapcore.WriteSyncer
	if opt.Path != "" {
		syncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Path,
			MaxSize:    opt.MaxSize,
			MaxAge:     opt.MaxAge,
			MaxBackups: opt.MaxBackups,
		})
		if opt.EnableStdout {
			syncer = zapcore.NewMultiWriteSyncer(syncer, zapcore.AddSync(os.Stdout))
		}
	} else {
		syncer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder, syncer, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// InitLogger 按配置初始化全局日志，仅首次调用生效
func InitLogger(opt Options) {
	initOnce.Do(func() {
		sugar = newLogger(opt).Sugar()
	})
}

func Debugf(format string, args ...interface{}) { sugar.Debugf(format, args...) }

func Info(args ...interface{}) { sugar.Info(args...) }

func Infof(format string, args ...interface{}) { sugar.Infof(format, args...) }

func Warn(args ...interface{}) { sugar.Warn(args...) }

func Warnf(format string, args ...interface{}) { sugar.Warnf(format, args...) }

func Error(args ...interface{}) { sugar.Error(args...) }

func Errorf(format string, args ...interface{}) { sugar.Errorf(format, args...) }

func Fatalf(format string, args ...interface{}) { sugar.Fatalf(format, args...) }
