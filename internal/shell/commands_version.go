package shell

import (
	"context"
	"fmt"
	"io"
)

// VersionCommand 显示客户端与服务端版本
type VersionCommand struct {
	version string
	client  *Client
	out     io.Writer
}

// NewVersionCommand 创建版本命令
func NewVersionCommand(version string, client *Client, out io.Writer) *VersionCommand {
	return &VersionCommand{version: version, client: client, out: out}
}

func (c *VersionCommand) Name() string      { return "version" }
func (c *VersionCommand) Aliases() []string { return []string{"v"} }

func (c *VersionCommand) Description() string {
	return "显示版本信息"
}

func (c *VersionCommand) Usage() string {
	return "version\n" +
		"  显示客户端版本，服务端可达时同时显示服务端版本"
}

func (c *VersionCommand) Execute(ctx context.Context, args []string) error {
	fmt.Fprintf(c.out, "booksearch-shell %s\n", c.version)

	health, err := c.client.Health(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "server %s unreachable: %v\n", c.client.GetServerURL(), err)
		return nil
	}
	fmt.Fprintf(c.out, "server %s %v (%v)\n", c.client.GetServerURL(), health["version"], health["status"])
	return nil
}
