package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("创建日志器失败: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, path
}

func TestLoggerWritesLeveledEntries(t *testing.T) {
	logger, path := newTestLogger(t)

	logger.Info("数据加载完成")
	logger.Error("回归失败")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "INFO: 数据加载完成") {
		t.Errorf("缺少INFO条目:\n%s", content)
	}
	if !strings.Contains(content, "ERROR: 回归失败") {
		t.Errorf("缺少ERROR条目:\n%s", content)
	}
}

func TestLoggerSubscribe(t *testing.T) {
	logger, _ := newTestLogger(t)

	ch := logger.Subscribe()
	logger.Warning("目录监控中断")

	select {
	case entry := <-ch:
		if !strings.Contains(entry, "WARNING: 目录监控中断") {
			t.Errorf("订阅消息内容错误: %q", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("订阅者未收到日志消息")
	}
}

func TestLoggerRotate(t *testing.T) {
	logger, path := newTestLogger(t)

	for i := 0; i < 20; i++ {
		logger.Info("填充日志内容以触发轮转阈值")
	}
	// 阈值1字节，必然触发轮转
	if err := logger.CheckRotate("1"); err != nil {
		t.Fatalf("轮转失败: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("轮转后新日志文件缺失: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("轮转后新文件应为空，实际%d字节", info.Size())
	}

	// 旧日志应被改名保留
	matches, _ := filepath.Glob(path + ".*")
	if len(matches) == 0 {
		t.Error("未找到轮转归档文件")
	}

	logger.Info("轮转后继续写入")
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "轮转后继续写入") {
		t.Error("轮转后写入未落到新文件")
	}
}

func TestLogLevelString(t *testing.T) {
	levels := map[LogLevel]string{
		DEBUG:        "DEBUG",
		INFO:         "INFO",
		WARNING:      "WARNING",
		ERROR:        "ERROR",
		FATAL:        "FATAL",
		LogLevel(99): "UNKNOWN",
	}
	for level, want := range levels {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestEval(t *testing.T) {
	if got := eval("10 * 1024 * 1024"); got != 10*1024*1024 {
		t.Errorf("eval = %d", got)
	}
	if got := eval("512"); got != 512 {
		t.Errorf("eval = %d", got)
	}
}
