package ecs

// Credentials ECS 访问凭证
// AssociateTag 可选，仅用于归属统计，不影响签名正确性
type Credentials struct {
	AccessKey    string
	SecretKey    string
	AssociateTag string
}

// Validate 检查必需的凭证字段
func (c Credentials) Validate() error {
	if c.AccessKey == "" {
		return &ConfigurationError{Field: "access key"}
	}
	if c.SecretKey == "" {
		return &ConfigurationError{Field: "secret key"}
	}
	return nil
}
