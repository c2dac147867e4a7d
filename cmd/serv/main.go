package main

import (
	"fmt"
	"os"

	"aquawatch/internal"

	"github.com/spf13/cobra"
)

var (
	configFile string
	rootCmd    = &cobra.Command{
		Use:   "aquawatch-server",
		Short: "AquaWatch 水质监测告警系统",
		Long:  `AquaWatch 是面向环境监测站点的告警服务，提供规则评估、告警生命周期管理与多渠道通知。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.Run(configFile)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "启动 AquaWatch 服务器",
		Long:  `启动 AquaWatch HTTP 服务器，提供 API 服务并运行告警评估定时任务。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.Run(configFile)
		},
	}
)

func init() {
	// 添加全局配置文件参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config.yaml", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
