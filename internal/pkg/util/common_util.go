package util

import (
	"bufio"
	"io"
	"net/http"
	"regexp"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"]+`)

// ExtractFirstURL 返回文本中的第一个 http(s) 链接，没有则返回空串
func ExtractFirstURL(content string) string {
	return urlRegex.FindString(content)
}

// GetSafeContentType 基于文件头嗅探内容类型，不信任客户端声明
func GetSafeContentType(reader io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := bufio.NewReader(reader).Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// PtrStr 用于将 string 转换为 *string
func PtrStr(s string) *string {
	return &s
}

// PtrBool 用于将 bool 转换为 *bool
func PtrBool(b bool) *bool {
	return &b
}

// PtrUint64 用于将 uint64 转换为 *uint64
func PtrUint64(i uint64) *uint64 {
	return &i
}
