/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/mautops/budget-gin/internal/config"
	"github.com/mautops/budget-gin/internal/database"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed default approval workflows and an admin user",
	Long: `Seed the database with a sensible starting configuration:
- a two-level budget approval workflow (department head, finance manager)
- a two-level contract approval workflow (department head, legal counsel)
- an admin user with full access to every module

Existing workflows of the same type are replaced. The admin user is
skipped when the username is already taken.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		ctx := context.Background()
		auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
		workflowSvc := service.NewWorkflowService(
			db,
			repository.NewWorkflowRepository(db),
			repository.NewSheetRepository(db),
			repository.NewApprovalItemRepository(db),
			repository.NewStateHistoryRepository(db),
			nil, auditLogSvc, nil, nil, nil,
		)
		userSvc := service.NewUserService(repository.NewUserRepository(db), auditLogSvc)

		// 预算审批矩阵
		if _, err := workflowSvc.SaveWorkflow(ctx, &service.SaveWorkflowRequest{
			Type: model.WorkflowTypeBudget,
			Levels: []service.WorkflowLevelInput{
				{Level: 1, RoleKey: "dept_head", RoleLabel: "Department Head"},
				{Level: 2, RoleKey: "finance_manager", RoleLabel: "Finance Manager"},
			},
		}); err != nil {
			return fmt.Errorf("failed to seed budget workflow: %w", err)
		}
		log.Println("Seeded budget approval workflow")

		// 合同审批矩阵
		if _, err := workflowSvc.SaveWorkflow(ctx, &service.SaveWorkflowRequest{
			Type: model.WorkflowTypeContract,
			Levels: []service.WorkflowLevelInput{
				{Level: 1, RoleKey: "dept_head", RoleLabel: "Department Head"},
				{Level: 2, RoleKey: "legal_counsel", RoleLabel: "Legal Counsel"},
			},
		}); err != nil {
			return fmt.Errorf("failed to seed contract workflow: %w", err)
		}
		log.Println("Seeded contract approval workflow")

		// 管理员用户
		adminPassword, _ := cmd.Flags().GetString("admin-password")
		if adminPassword == "" {
			adminPassword = "changeme-now"
		}
		fullAccess := map[string]model.PermissionLevel{
			model.ModuleBudget:    model.PermissionFull,
			model.ModuleContract:  model.PermissionFull,
			model.ModuleHierarchy: model.PermissionFull,
			model.ModuleWorkflow:  model.PermissionFull,
			model.ModuleUser:      model.PermissionFull,
			model.ModuleVendor:    model.PermissionFull,
			model.ModuleDevice:    model.PermissionFull,
			model.ModuleForecast:  model.PermissionFull,
		}
		if _, err := userSvc.Create(ctx, &service.CreateUserRequest{
			Username:    "admin",
			Email:       "admin@example.com",
			Password:    adminPassword,
			RoleKey:     "finance_manager",
			Permissions: fullAccess,
		}); err != nil {
			log.Printf("Skipping admin user: %v", err)
		} else {
			log.Println("Seeded admin user")
		}

		log.Println("Seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.budget-gin)")
	seedCmd.Flags().String("admin-password", "", "Initial password for the admin user")
}
