package ecs

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"booksearch/internal/model"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// ECS 响应中的节点名。构建节点树时标签名统一转为小写
const (
	nodeIsValid      = "isvalid"
	nodeError        = "error"
	nodeMessage      = "message"
	nodeTotalResults = "totalresults"
	nodeTotalPages   = "totalpages"
	nodeItem         = "item"
	nodeAttributes   = "itemattributes"
	nodeURL          = "url"
)

// itemField 一个记录字段的查找路径及写入方式
type itemField struct {
	path []string
	set  func(r *model.ItemRecord, v *string)
}

// itemFields 17 个字段，各自独立提取，互不影响
var itemFields = []itemField{
	{[]string{"asin"}, func(r *model.ItemRecord, v *string) { r.ASIN = v }},
	{[]string{"detailpageurl"}, func(r *model.ItemRecord, v *string) { r.DetailURL = v }},
	{[]string{nodeAttributes, "author"}, func(r *model.ItemRecord, v *string) { r.Author = v }},
	{[]string{nodeAttributes, "binding"}, func(r *model.ItemRecord, v *string) { r.Binding = v }},
	{[]string{nodeAttributes, "deweydecimalnumber"}, func(r *model.ItemRecord, v *string) { r.DeweyDecimal = v }},
	{[]string{nodeAttributes, "ean"}, func(r *model.ItemRecord, v *string) { r.EAN = v }},
	{[]string{nodeAttributes, "edition"}, func(r *model.ItemRecord, v *string) { r.Edition = v }},
	{[]string{nodeAttributes, "isbn"}, func(r *model.ItemRecord, v *string) { r.ISBN = v }},
	{[]string{nodeAttributes, "manufacturer"}, func(r *model.ItemRecord, v *string) { r.Manufacturer = v }},
	{[]string{nodeAttributes, "title"}, func(r *model.ItemRecord, v *string) { r.Title = v }},
	{[]string{nodeAttributes, "productgroup"}, func(r *model.ItemRecord, v *string) { r.ProductGroup = v }},
	{[]string{nodeAttributes, "publisher"}, func(r *model.ItemRecord, v *string) { r.Publisher = v }},
	{[]string{nodeAttributes, "formattedprice"}, func(r *model.ItemRecord, v *string) { r.FormattedPrice = v }},
	{[]string{nodeAttributes, "numberofpages"}, func(r *model.ItemRecord, v *string) { r.NumberOfPages = v }},
	{[]string{"smallimage", nodeURL}, func(r *model.ItemRecord, v *string) { r.SmallImageURL = v }},
	{[]string{"mediumimage", nodeURL}, func(r *model.ItemRecord, v *string) { r.MediumImageURL = v }},
	{[]string{"largeimage", nodeURL}, func(r *model.ItemRecord, v *string) { r.LargeImageURL = v }},
}

// ParseResponse 解析 ECS XML 响应
// 不返回错误：缺失或无法解析的部分退化为默认值或 nil
func ParseResponse(raw []byte) *model.SearchResult {
	result := &model.SearchResult{
		Items: []model.ItemRecord{},
	}

	root := goquery.NewDocumentFromNode(buildTree(raw)).Selection

	if v := extract(root, nodeIsValid); v != nil {
		result.IsValid = *v == "True"
	}

	if !result.IsValid {
		result.ErrorMessage = extract(root, nodeError, nodeMessage)
	}

	result.TotalResults = extractInt(root, nodeTotalResults)
	result.TotalPages = extractInt(root, nodeTotalPages)

	root.Find(nodeItem).Each(func(_ int, item *goquery.Selection) {
		result.Items = append(result.Items, parseItem(item))
	})

	return result
}

// buildTree 用宽松模式的 XML 解码器把文档转成节点树，供 goquery 查询
// 解码出错时保留已读到的部分
func buildTree(raw []byte) *html.Node {
	root := &html.Node{Type: html.DocumentNode}

	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	stack := []*html.Node{root}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return root
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			node := &html.Node{
				Type: html.ElementNode,
				Data: strings.ToLower(t.Name.Local),
			}
			for _, attr := range t.Attr {
				node.Attr = append(node.Attr, html.Attribute{
					Key: strings.ToLower(attr.Name.Local),
					Val: attr.Value,
				})
			}
			parent.AppendChild(node)
			stack = append(stack, node)
		case xml.EndElement:
			name := strings.ToLower(t.Name.Local)
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Data == name {
					stack = stack[:i]
					break
				}
			}
		case xml.CharData:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: string(t)})
		}
	}
}

// parseItem 提取单个 Item 节点的全部字段
func parseItem(item *goquery.Selection) model.ItemRecord {
	var record model.ItemRecord
	for _, f := range itemFields {
		f.set(&record, extract(item, f.path...))
	}
	return record
}

// extract 沿路径逐级取第一个匹配的后代节点，返回去除首尾空白的文本
// 任一级缺失或节点没有内容时返回 nil
func extract(sel *goquery.Selection, path ...string) *string {
	for _, name := range path {
		sel = sel.Find(name).First()
		if sel.Length() == 0 {
			return nil
		}
	}
	if len(path) == 0 || sel.Contents().Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(sel.Text())
	return &text
}

// extractInt 提取整数，缺失或非数字时为 0
func extractInt(sel *goquery.Selection, path ...string) int {
	v := extract(sel, path...)
	if v == nil {
		return 0
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return 0
	}
	return n
}
