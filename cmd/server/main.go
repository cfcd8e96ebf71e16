package main

import (
	"flag"

	"github.com/agro-backoffice/internal/app"
	"github.com/agro-backoffice/internal/cli"
	"github.com/agro-backoffice/internal/logger"
)

func main() {
	mode := flag.String("mode", app.ModeAll, "启动模式: all (默认), api, metrics")
	flag.Parse()

	if err := cli.Serve(*mode); err != nil {
		logger.StdLogger().Fatalf("服务运行失败: %v", err)
	}
}
