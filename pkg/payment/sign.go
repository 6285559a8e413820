package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	// FieldSign 签名字段
	FieldSign = "sign"
	// FieldSignType 签名类型字段
	FieldSignType = "sign_type"
	// SignTypeMD5 唯一支持的签名类型
	SignTypeMD5 = "MD5"
)

// callbackRequiredFields 回调中必须出现的字段
var callbackRequiredFields = []string{
	"pid", "trade_no", "out_trade_no", "type", "name", "money", "trade_status",
}

// Sign 计算参数签名
//
// 排除 sign、sign_type 和空值字段，按键名升序拼接为 k=v&k=v，末尾追加密钥后取MD5小写十六进制。
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == FieldSign || k == FieldSignType || strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(params[k]))
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify 校验支付回调签名，任何必填字段缺失都返回 false
func Verify(params map[string]string, secret string) bool {
	if secret == "" {
		return false
	}
	supplied := strings.ToLower(strings.TrimSpace(params[FieldSign]))
	if supplied == "" {
		return false
	}
	for _, field := range callbackRequiredFields {
		if strings.TrimSpace(params[field]) == "" {
			return false
		}
	}

	expected := Sign(params, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
