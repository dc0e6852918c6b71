package util

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SniffContent 按文件头判断真实类型，读完把指针拨回开头。
// allowed 可以是前缀（"image/"）也可以是完整类型。
func SniffContent(rs io.ReadSeeker, allowed ...string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(head[:n])
	for _, a := range allowed {
		if strings.HasPrefix(mimeType, a) {
			return mimeType, nil
		}
	}
	return mimeType, fmt.Errorf("unexpected content type %s", mimeType)
}
