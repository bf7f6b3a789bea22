package storage

import (
	"errors"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断删除或读取失败是否只是因为对象不存在。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return resp.Code == "" && resp.StatusCode == http.StatusNotFound
}
