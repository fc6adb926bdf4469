package shell

import (
	"context"
	"fmt"
	"io"
)

// ExitCommand 退出命令
type ExitCommand struct {
	out io.Writer
}

// NewExitCommand 创建退出命令
func NewExitCommand(out io.Writer) *ExitCommand {
	return &ExitCommand{out: out}
}

func (c *ExitCommand) Name() string {
	return "exit"
}

func (c *ExitCommand) Aliases() []string {
	return []string{"quit", "q"}
}

func (c *ExitCommand) Description() string {
	return "退出客户端"
}

func (c *ExitCommand) Usage() string {
	return "exit\n" +
		"  退出交互式客户端\n" +
		"  也可以使用别名: quit, q"
}

// Execute 返回 ErrExit，由调用方结束循环
func (c *ExitCommand) Execute(ctx context.Context, args []string) error {
	fmt.Fprintln(c.out, "再见!")
	return ErrExit
}
