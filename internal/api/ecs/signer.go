package ecs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ECS 请求签名常量
const (
	Host        = "ecs.amazonaws.com"
	RequestPath = "/onca/xml"
	ServiceName = "AWSECommerceService"
	APIVersion  = "2009-03-31"

	// ECS 的时间戳总是带 .000 的百分秒部分
	timestampLayout = "2006-01-02T15:04:05"
	timestampSuffix = ".000Z"
)

// Clock 时间源，测试时注入固定时间
type Clock func() time.Time

// SignedRequest 签名结果
// CanonicalQuery、Timestamp 和 Signature 仅用于诊断
type SignedRequest struct {
	URL            string
	CanonicalQuery string
	Timestamp      string
	Signature      string
}

// Signer 持有凭证和时间源的签名器，只读，可并发使用
type Signer struct {
	credentials Credentials
	clock       Clock
}

// NewSigner 创建签名器，clock 为 nil 时使用 time.Now
func NewSigner(credentials Credentials, clock Clock) *Signer {
	if clock == nil {
		clock = time.Now
	}
	return &Signer{
		credentials: credentials,
		clock:       clock,
	}
}

// Sign 对操作签名
func (s *Signer) Sign(op Operation) (*SignedRequest, error) {
	return Sign(s.credentials, op, s.clock)
}

// Sign 根据凭证、操作和时间源生成签名 URL
// 相同的输入与时间总是得到完全相同的 URL
func Sign(credentials Credentials, op Operation, clock Clock) (*SignedRequest, error) {
	if err := credentials.Validate(); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, &ValidationError{Operation: "unknown", Field: "operation", Reason: "is required"}
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}

	timestamp := FormatTimestamp(clock())

	params := op.ToQueryParams()
	params["AssociateTag"] = credentials.AssociateTag
	params["AWSAccessKeyId"] = credentials.AccessKey
	params["Service"] = ServiceName
	params["Version"] = APIVersion
	params["Timestamp"] = timestamp

	canonical := CanonicalQueryString(params)
	signature := computeSignature(credentials.SecretKey, StringToSign(canonical))

	return &SignedRequest{
		URL:            "http://" + Host + RequestPath + "?" + canonical + "&Signature=" + PercentEncode(signature),
		CanonicalQuery: canonical,
		Timestamp:      timestamp,
		Signature:      signature,
	}, nil
}

// FormatTimestamp 格式化为 UTC YYYY-MM-DDTHH:MM:SS.000Z
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout) + timestampSuffix
}

// CanonicalQueryString 丢弃空值，按 key 字节序排序，编码后以 & 连接
func CanonicalQueryString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+PercentEncode(params[k]))
	}
	return strings.Join(pairs, "&")
}

// StringToSign 构造待签名字符串：方法、主机、路径、查询串，末尾无换行
func StringToSign(canonicalQuery string) string {
	return strings.Join([]string{"GET", Host, RequestPath, canonicalQuery}, "\n")
}

// PercentEncode RFC 3986 编码，仅 A-Z a-z 0-9 - _ . ~ 不转义
func PercentEncode(s string) string {
	// QueryEscape 把空格编码为 +，字面量 + 已是 %2B
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func computeSignature(secretKey, stringToSign string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
