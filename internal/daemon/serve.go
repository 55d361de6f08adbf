package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/livp123/pddash/internal/config"
	"github.com/livp123/pddash/internal/utils/logger"
	"go.uber.org/zap"
)

// Serve runs pddash until ctx is cancelled or SIGINT/SIGTERM arrives.
// SIGHUP re-reads the config file and applies the new log level.
// Serve 运行 pddash，直到 ctx 被取消或收到 SIGINT/SIGTERM。
// SIGHUP 重新读取配置文件并应用新的日志级别。
func Serve(ctx context.Context, cm *config.ConfigManager) error {
	log := logger.Get(ctx)
	cfg := cm.GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	if cfg.Server.PidFile != "" {
		if err := managePidFile(cfg.Server.PidFile); err != nil {
			return err
		}
		defer removePidFile(cfg.Server.PidFile, log)
	}

	in := NewInstance(cfg, log)
	if err := in.Start(ctx); err != nil {
		return err
	}
	printBanner(log, cfg, in.Addr())

	if _, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		log.Debugf("sd_notify READY failed: %v", err)
	}

	waitForSignal(ctx, cm, log)

	_, _ = sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)
	log.Infof("[STOP] Shutting down...")
	if err := in.Stop(context.Background()); err != nil {
		log.Warnf("[WARN]  Graceful shutdown incomplete: %v", err)
	}
	return nil
}

func printBanner(log *zap.SugaredLogger, cfg *config.GlobalConfig, addr string) {
	log.Infof("[START] pddash serving on http://%s", addr)
	log.Infof("[START] Watching %s (mode: %s)", cfg.Source.EventsPath(), cfg.Source.Mode)
	if cfg.Server.Host == config.DefaultHost {
		log.Infof("[START] Listening on loopback only; use %s=0.0.0.0 to allow external connections", config.EnvHost)
	}
}

func waitForSignal(ctx context.Context, cm *config.ConfigManager, log *zap.SugaredLogger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sig:
			if s != syscall.SIGHUP {
				log.Infof("[STOP] Received %v", s)
				return
			}
			_, _ = sddaemon.SdNotify(false, sddaemon.SdNotifyReloading)
			reload(cm, log)
			_, _ = sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
		}
	}
}

// reload applies the logging section of the config file. Other sections need a restart.
// reload 应用配置文件中的日志部分，其他部分需要重启才能生效。
func reload(cm *config.ConfigManager, log *zap.SugaredLogger) {
	log.Infof("[RELOAD] Received SIGHUP, reloading %s", cm.GetConfigPath())

	fresh, err := config.LoadGlobalConfig(cm.GetConfigPath())
	if err == nil {
		err = fresh.ApplyEnv()
	}
	if err == nil {
		err = fresh.Validate()
	}
	if err != nil {
		log.Errorf("[ERROR] Failed to reload config: %v", err)
		return
	}

	current := cm.GetConfig()
	cm.SetLoggingConfig(fresh.Logging)
	logger.SetLevel(fresh.Logging.Level)

	if current != nil && (fresh.Server != current.Server || fresh.Source != current.Source || fresh.Store != current.Store) {
		log.Warnf("[WARN]  Changes outside the logging section take effect after a restart")
	}
	log.Infof("[RELOAD] Log level is now %s", logger.Level())
}
