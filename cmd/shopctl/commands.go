package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cardshop/config"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// withApp 打开连接后执行 fn
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建数据表",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.NewConnection(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Println("数据表已就绪")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "管理后台会话",
	}

	var (
		userID string
		role   string
		ttl    time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "签发会话令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				token, err := a.services.Sessions.Issue(ctx, model.Caller{UserID: userID, Role: model.Role(role)}, ttl)
				if err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}
	issue.Flags().StringVar(&userID, "user", "admin", "用户标识")
	issue.Flags().StringVar(&role, "role", string(model.RoleAdmin), "角色 (admin, user)")
	issue.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "有效期")

	revoke := &cobra.Command{
		Use:   "revoke [token]",
		Short: "注销会话令牌",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return a.services.Sessions.Revoke(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(issue, revoke)
	return cmd
}

func productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "管理商品",
	}

	var (
		name  string
		price string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "创建上架商品",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("无效的价格 %q: %w", price, err)
			}
			return withApp(func(ctx context.Context, a *app) error {
				product, err := a.services.Admin.CreateProduct(ctx, operator, name, amount)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t%s\n", product.ID, product.Name, product.Price.StringFixed(2))
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "商品名称")
	add.Flags().StringVar(&price, "price", "", "单价")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("price")

	cmd.AddCommand(add)
	return cmd
}

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "管理卡密库存",
	}

	var (
		productID string
		dedup     bool
	)
	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "从文件导入卡密，每行一张",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.services.Admin.CreateCards(ctx, operator, productID, string(data), dedup)
				if err != nil {
					return err
				}
				fmt.Printf("已导入 %d 张卡密\n", n)
				return nil
			})
		},
	}
	importCmd.Flags().StringVar(&productID, "product", "", "商品ID")
	importCmd.Flags().BoolVar(&dedup, "dedup", true, "跳过重复卡密")
	_ = importCmd.MarkFlagRequired("product")

	relist := &cobra.Command{
		Use:   "relist [card-id...]",
		Short: "重新上架已退款卡密",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.services.Admin.RelistRefundedCards(ctx, operator, args)
				if err != nil {
					return err
				}
				fmt.Printf("已重新上架 %d 张卡密\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(importCmd, relist)
	return cmd
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "管理订单",
	}

	var remark string
	complete := &cobra.Command{
		Use:   "complete [order-id]",
		Short: "手动完成订单并发放卡密",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				outcome, err := a.services.Admin.CompleteOrder(ctx, operator, args[0], remark)
				if err != nil {
					return err
				}
				fmt.Printf("订单 %s 已完成，发放 %d 张卡密\n", outcome.Order.OrderNo, len(outcome.Cards))
				return nil
			})
		},
	}
	complete.Flags().StringVar(&remark, "remark", "", "备注")

	expire := &cobra.Command{
		Use:   "expire",
		Short: "立即过期超时未支付的订单",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.services.Orders.ExpireStaleOrders(ctx, time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("已过期 %d 个订单\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(complete, expire)
	return cmd
}
