package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"booksearch/internal/config"
	"booksearch/internal/shell"
)

// Version 客户端版本，构建时可通过 -ldflags 覆盖
var Version = "1.0.0"

// getServerURL 获取服务器 URL
// 优先级：环境变量 BOOKSEARCH_SERVER_URL、配置文件 shell.server_url、默认值
func getServerURL() string {
	if serverURL := os.Getenv("BOOKSEARCH_SERVER_URL"); serverURL != "" {
		return serverURL
	}

	cfg, err := config.Load("")
	if err == nil && cfg.Shell.ServerURL != "" {
		return cfg.Shell.ServerURL
	}

	return shell.DefaultServerURL
}

func main() {
	sh, err := shell.New(getServerURL(), Version, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 非交互式模式
	if len(os.Args) > 1 {
		commandName := strings.ToLower(os.Args[1])
		args := os.Args[2:]

		switch commandName {
		case "--help", "-h":
			fmt.Println(sh.Registry().Help())
			return
		case "--version":
			commandName = "version"
		}

		if err := sh.RunCommand(ctx, commandName, args); err != nil && !errors.Is(err, shell.ErrExit) {
			fmt.Printf("ERR: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 交互式模式
	if err := sh.RunInteractive(ctx, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %v\n", err)
		os.Exit(1)
	}
}
