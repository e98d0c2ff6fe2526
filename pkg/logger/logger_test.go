package logger

import (
	"testing"

	"github.com/YuYe10/DB-EX3/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("%s 格式初始化失败: %v", format, err)
		}
		_ = l.Sync()
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud"}); err == nil {
		t.Error("无效日志级别应报错")
	}
	if _, err := NewCLILogger("loud"); err == nil {
		t.Error("无效日志级别应报错")
	}
}
