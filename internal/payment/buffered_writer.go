package payment

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bufferedWriter 暂存下游响应，结算成功后才写出
// 响应头直接写入底层 Header，状态码与响应体延迟到 flush
type bufferedWriter struct {
	gin.ResponseWriter
	status  int
	body    bytes.Buffer
	written bool
}

func newBufferedWriter(w gin.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.written {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.written = true
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.written = true
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	return w.status
}

func (w *bufferedWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.written
}

// Flush 缓冲期间不向客户端推送
func (w *bufferedWriter) Flush() {}

// flushTo 将暂存的状态码与响应体写到 dst
func (w *bufferedWriter) flushTo(dst gin.ResponseWriter) error {
	dst.WriteHeader(w.status)
	if w.body.Len() == 0 {
		dst.WriteHeaderNow()
		return nil
	}
	_, err := dst.Write(w.body.Bytes())
	return err
}
