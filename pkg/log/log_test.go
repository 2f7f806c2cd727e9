package log

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitInvalidLevelFallsBack(t *testing.T) {
	// 非法级别回退到 info，logger 可正常使用
	Init("not-a-level", "console", "")
	Info("级别回退检查")
	Infof("格式化输出检查: %d", 1)
	Debugf("debug 输出检查: %s", "ok")
	Sync()
}

func TestInitCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	Init("info", "json", dir)
	Info("文件输出检查")
	Sync()

	if _, err := os.Stat(filepath.Join(dir, logFileName)); err != nil {
		t.Fatalf("日志文件未创建: %v", err)
	}
}
