package app

import (
	"errors"

	"github.com/promotion-next/internal/config"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/provider"
	"github.com/promotion-next/internal/router"
	"github.com/promotion-next/internal/worker"
)

// BuildRunner 构建服务运行器。
// 状态流转依赖延时触发消息，worker 模式要求队列必须启用；
// all 模式下队列未启用时降级为仅 API 运行。
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		if !cfg.Queue.Enabled {
			if mode == ModeWorker {
				return nil, errors.New("worker mode requires queue enabled")
			}
			logger.Warnw("app_worker_skipped_queue_disabled", "mode", mode)
		} else {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
