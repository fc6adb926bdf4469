package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompt 交互提示符
const Prompt = "booksearch> "

// Shell 命令行客户端
type Shell struct {
	client   *Client
	registry *CommandRegistry
	out      io.Writer
}

// New 创建客户端并注册全部命令
func New(serverURL, version string, out io.Writer) (*Shell, error) {
	client := NewClient(serverURL)
	registry := NewCommandRegistry()

	commands := []Command{
		NewSearchCommand(client, out),
		NewLookupCommand(client, out),
		NewSimilarCommand(client, out),
		NewVersionCommand(version, client, out),
		NewHelpCommand(registry, out),
		NewExitCommand(out),
	}
	for _, cmd := range commands {
		if err := registry.Register(cmd); err != nil {
			return nil, fmt.Errorf("failed to register %s command: %w", cmd.Name(), err)
		}
	}

	return &Shell{
		client:   client,
		registry: registry,
		out:      out,
	}, nil
}

// Registry 返回命令注册表
func (s *Shell) Registry() *CommandRegistry {
	return s.registry
}

// ParseCommand 解析命令行输入，命令名转为小写
func ParseCommand(line string) (string, []string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

// RunCommand 执行单个命令（非交互式模式）
func (s *Shell) RunCommand(ctx context.Context, commandName string, args []string) error {
	cmd, ok := s.registry.Get(commandName)
	if !ok {
		return fmt.Errorf("未知命令: %s\n输入 'help' 查看帮助", commandName)
	}
	return cmd.Execute(ctx, args)
}

// RunInteractive 逐行读取并执行命令，直到输入结束或 exit
// 单条命令出错只输出 ERR 行，不中断循环
func (s *Shell) RunInteractive(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(s.out, "booksearch shell - 连接到", s.client.GetServerURL())
	fmt.Fprintln(s.out, "输入 'help' 查看帮助，输入 'exit' 或 'quit' 退出")
	fmt.Fprintln(s.out)

	for {
		fmt.Fprint(s.out, Prompt)

		if !scanner.Scan() {
			break
		}

		commandName, args := ParseCommand(scanner.Text())
		if commandName == "" {
			continue
		}

		err := s.RunCommand(ctx, commandName, args)
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "ERR: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取输入时出错: %w", err)
	}
	return nil
}
