package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/YuYe10/DB-EX3/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFromError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    int
		message string
	}{
		{apperrors.Validation("平时成绩必须在0-100之间"), http.StatusBadRequest, 40001, "平时成绩必须在0-100之间"},
		{apperrors.Conflict("已选该课程"), http.StatusConflict, 40901, "已选该课程"},
		{apperrors.Permission("无权操作该课程"), http.StatusForbidden, 40301, "无权操作该课程"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, 50000, "服务器内部错误"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		FromError(c, tc.err)

		if w.Code != tc.status {
			t.Errorf("%v: 期望状态码 %d，实际 %d", tc.err, tc.status, w.Code)
		}
		var body Response
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("解析响应失败: %v", err)
		}
		if body.Code != tc.code || body.Message != tc.message {
			t.Errorf("%v: 响应不符 %+v", tc.err, body)
		}
	}
}

func TestXLSX(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	XLSX(c, bytes.NewBufferString("PK"), "数据库-张三-20260101-120000.xlsx")

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("Content-Disposition 错误: %s", cd)
	}
	if w.Body.String() != "PK" {
		t.Errorf("响应体错误: %q", w.Body.String())
	}
}
