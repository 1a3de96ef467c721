package exporter

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildContentDisposition 下载头：ASCII 兜底文件名 + RFC 5987 UTF-8 文件名
func BuildContentDisposition(fallback, filename string) string {
	encoded := strings.ReplaceAll(url.PathEscape(filename), "+", "%2B")
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, encoded)
}

// ContentType 按导出格式返回 MIME 类型
func ContentType(format string) string {
	if format == "csv" {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
