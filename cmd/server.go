/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mautops/budget-gin/internal/api"
	"github.com/mautops/budget-gin/internal/config"
	"github.com/mautops/budget-gin/internal/container"
	"github.com/mautops/budget-gin/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Budget Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for budget sheets, contracts,
the approval workflow and the organizational hierarchy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// 3. 监听配置文件,日志级别支持热更
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath, logger)
			watcher.OnChange(func(next *config.Config) {
				level, err := logrus.ParseLevel(next.Log.Level)
				if err != nil {
					logger.WithError(err).Warn("Invalid log level in config change")
					return
				}
				logger.SetLevel(level)
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("Config watcher disabled")
			} else {
				defer watcher.Stop()
			}
		}

		// 4. 初始化容器
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 5. 设置路由
		router := api.SetupRoutes(&api.RouterConfig{
			Config:        cfg,
			DB:            ctr.DB(),
			Hub:           ctr.Hub(),
			Tokens:        ctr.Tokens(),
			LLMClient:     ctr.LLMClient(),
			HierarchySvc:  ctr.HierarchyService(),
			SheetSvc:      ctr.SheetService(),
			WorkflowSvc:   ctr.WorkflowService(),
			PermissionSvc: ctr.PermissionService(),
			UserSvc:       ctr.UserService(),
			RegistrySvc:   ctr.RegistryService(),
			ForecastSvc:   ctr.ForecastService(),
			AuditLogSvc:   ctr.AuditLogService(),
		})

		// 6. 周期性刷新聚合指标
		stopMetrics := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateSheetsByStatus(ctr.DB())
					metrics.UpdateDatabaseConnections(ctr.DB())
				case <-stopMetrics:
					return
				}
			}
		}()
		defer close(stopMetrics)

		// 7. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 添加配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.budget-gin)")
}
