package domain

import (
	"strings"

	"github.com/google/uuid"
)

var refNamespace = uuid.MustParse("5b1d7c2e-8f0a-4c4e-9d51-3a7c2f6e9b10")

// RefOf 根据标题或 handle 生成确定性的不透明引用（UUID v5，去掉连字符共 32 位）
// 按钮里只携带引用，不携带标题本身
func RefOf(key string) string {
	return strings.ReplaceAll(uuid.NewSHA1(refNamespace, []byte(key)).String(), "-", "")
}
