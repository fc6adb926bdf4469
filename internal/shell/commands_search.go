package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"booksearch/internal/model"
)

// SearchCommand 关键词搜索
type SearchCommand struct {
	client *Client
	out    io.Writer
}

// NewSearchCommand 创建搜索命令
func NewSearchCommand(client *Client, out io.Writer) *SearchCommand {
	return &SearchCommand{client: client, out: out}
}

func (c *SearchCommand) Name() string      { return "search" }
func (c *SearchCommand) Aliases() []string { return []string{"s"} }

func (c *SearchCommand) Description() string {
	return "按关键词搜索图书"
}

func (c *SearchCommand) Usage() string {
	return "search <keywords...>\n" +
		"  示例:\n" +
		"    search go programming"
}

// Execute 多个参数以空格拼接为关键词
func (c *SearchCommand) Execute(ctx context.Context, args []string) error {
	keywords := strings.TrimSpace(strings.Join(args, " "))
	if keywords == "" {
		return fmt.Errorf("keywords are required\n用法: %s", c.Usage())
	}

	data, err := c.client.Search(ctx, keywords)
	if err != nil {
		return err
	}
	PrintResult(c.out, &data.Result)
	return nil
}

// IdentifierCommand 按 ASIN 或 ISBN 查询，lookup 与 similar 共用
type IdentifierCommand struct {
	name        string
	aliases     []string
	description string
	call        func(ctx context.Context, idType, itemID string) (*SearchData, error)
	out         io.Writer
}

// NewLookupCommand 创建详情查询命令
func NewLookupCommand(client *Client, out io.Writer) *IdentifierCommand {
	return &IdentifierCommand{
		name:        "lookup",
		aliases:     []string{"l"},
		description: "按 ASIN 或 ISBN 查询图书详情",
		call:        client.Lookup,
		out:         out,
	}
}

// NewSimilarCommand 创建相似图书查询命令
func NewSimilarCommand(client *Client, out io.Writer) *IdentifierCommand {
	return &IdentifierCommand{
		name:        "similar",
		aliases:     []string{"sim"},
		description: "按 ASIN 或 ISBN 查询相似图书",
		call:        client.Similar,
		out:         out,
	}
}

func (c *IdentifierCommand) Name() string        { return c.name }
func (c *IdentifierCommand) Aliases() []string   { return c.aliases }
func (c *IdentifierCommand) Description() string { return c.description }

func (c *IdentifierCommand) Usage() string {
	return c.name + " <asin|isbn> <id>\n" +
		"  示例:\n" +
		"    " + c.name + " isbn 9780134190440"
}

func (c *IdentifierCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected 2 arguments, got %d\n用法: %s", len(args), c.Usage())
	}

	data, err := c.call(ctx, strings.ToUpper(args[0]), args[1])
	if err != nil {
		return err
	}
	PrintResult(c.out, &data.Result)
	return nil
}

// PrintResult 按固定格式输出查询结果
// 没有商品时输出 ERR 行
func PrintResult(w io.Writer, result *model.SearchResult) {
	valid := "False"
	if result.IsValid {
		valid = "True"
	}
	fmt.Fprintf(w, "Valid: %s\n", valid)
	fmt.Fprintf(w, "Total Results: %d\n", result.TotalResults)
	fmt.Fprintf(w, "Total Pages: %d\n", result.TotalPages)

	if len(result.Items) == 0 {
		fmt.Fprintf(w, "ERR: %s\n", model.StringValue(result.ErrorMessage))
		return
	}

	for _, item := range result.Items {
		fmt.Fprintf(w, "%s Title: %s, by %s\n",
			model.StringValue(item.ISBN),
			model.StringValue(item.Title),
			model.StringValue(item.Author),
		)
	}
}
