package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := Conflict("重复选课: student=%d course=%d", 1, 2)

	if !errors.Is(err, ErrConflict) {
		t.Error("期望 errors.Is(err, ErrConflict) 为 true")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("冲突错误不应匹配 ErrValidation")
	}

	wrapped := fmt.Errorf("admit: %w", err)
	if !errors.Is(wrapped, ErrConflict) {
		t.Error("包装后仍应匹配 ErrConflict")
	}
	if KindOf(wrapped) != KindConflict {
		t.Errorf("期望 KindConflict，实际=%s", KindOf(wrapped))
	}
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("普通错误应视为内部错误")
	}
	if KindOf(nil) != "" {
		t.Error("nil 不应有分类")
	}
}

func TestMessageOf_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "写入成绩失败")
	if got := MessageOf(err); got != "服务器内部错误" {
		t.Errorf("内部错误不应泄漏细节，实际=%s", got)
	}
	if got := MessageOf(Validation("平时成绩必须在0-100之间")); got != "平时成绩必须在0-100之间" {
		t.Errorf("校验错误文案不符: %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:  http.StatusBadRequest,
		KindReferential: http.StatusUnprocessableEntity,
		KindConflict:    http.StatusConflict,
		KindPermission:  http.StatusForbidden,
		KindNotFound:    http.StatusNotFound,
		KindInternal:    http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("%s: 期望 %d，实际 %d", kind, want, got)
		}
	}
}
