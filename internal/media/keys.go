package media

import (
	"strings"
	"unicode/utf8"
)

const maxPublicIDLength = 200

// validPublicID 只允许删除本服务上传目录下的对象。
func validPublicID(key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > maxPublicIDLength {
		return false
	}
	if !strings.HasPrefix(key, imageFolder+"/") {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	return !strings.HasSuffix(key, "/")
}
