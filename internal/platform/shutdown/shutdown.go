// Package shutdown 编排收到停机信号之后的优雅停机流程。
package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/falsifi-backend/pkg/lifecycle"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
)

// Finalizer 在所有后台服务退出之后执行，例如关闭数据库连接
type Finalizer struct {
	Name string
	Fn   func() error
}

// Coordinator 负责编排应用程序的优雅停机流程
type Coordinator struct {
	manager    *lifecycle.Manager
	finalizers []Finalizer

	httpTimeout     time.Duration
	gracefulTimeout time.Duration
}

func NewCoordinator(manager *lifecycle.Manager, finalizers ...Finalizer) *Coordinator {
	return &Coordinator{
		manager:         manager,
		finalizers:      finalizers,
		httpTimeout:     httpTimeout,
		gracefulTimeout: gracefulTimeout,
	}
}

// ListenForSignalsAndShutdown 阻塞直到收到 SIGINT/SIGTERM，然后执行停机流程
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	logger.Infof("收到关闭信号 %v，开始优雅停机...", sig)
	c.Shutdown(server)
}

// Shutdown 依次关闭HTTP服务器、后台服务和底层连接
func (c *Coordinator) Shutdown(server *http.Server) {
	// 1. 关闭HTTP服务器，允许正在进行的请求完成
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.httpTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Gin服务器关闭错误")
		} else {
			logger.Info("Gin服务器已关闭。")
		}
	}

	// 2. 广播停机信号并等待后台服务退出
	logger.Infof("等待最多 %v 以完成后台任务...", c.gracefulTimeout)
	c.manager.Shutdown()
	if remaining := c.manager.WaitWithTimeout(c.gracefulTimeout); len(remaining) > 0 {
		logger.WithFields(map[string]interface{}{"services": remaining}).Warn("部分后台服务未能在超时前退出")
	} else {
		logger.Info("所有后台服务已优雅关闭。")
	}

	// 3. 关闭底层连接
	for _, f := range c.finalizers {
		if err := f.Fn(); err != nil {
			logger.WithError(err).WithField("step", f.Name).Error("停机收尾失败")
		}
	}

	logger.Info("优雅停机完成。")
}
