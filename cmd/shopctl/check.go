package main

import (
	"context"
	"fmt"
	"time"

	"cardshop/config"
	"cardshop/pkg/database"
	"cardshop/pkg/network"

	"github.com/spf13/cobra"
)

const checkTimeout = 5 * time.Second

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "检查数据库、Redis、邮件服务器和支付网关的连通性",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			failed := 0
			report := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Printf("[FAIL] %s: %v\n", name, err)
					return
				}
				fmt.Printf("[ OK ] %s\n", name)
			}

			report("database", pingDatabase(cmd.Context(), cfg.Database))
			report("redis", pingRedis(cmd.Context(), cfg.Redis))
			if cfg.Email.Host != "" {
				report("smtp", network.CheckPort(cfg.Email.Host, cfg.Email.Port, checkTimeout))
			}
			if cfg.Payment.Secret == "" {
				failed++
				fmt.Println("[FAIL] payment: LDC_SECRET 未配置")
			} else {
				report("payment gateway", network.CheckURL(cfg.Payment.Gateway, checkTimeout))
			}

			if failed > 0 {
				return fmt.Errorf("%d 项检查未通过", failed)
			}
			return nil
		},
	}
}

func pingDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

func pingRedis(ctx context.Context, cfg config.RedisConfig) error {
	client, err := database.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
