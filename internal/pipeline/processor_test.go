package pipeline

import (
	"strings"
	"testing"
)

func TestSplitFixed(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		size     int
		wantLens []int
	}{
		{
			name:     "长文本切成三块",
			text:     strings.Repeat("a", 3400),
			size:     1500,
			wantLens: []int{1500, 1500, 400},
		},
		{
			name:     "恰好整除无余块",
			text:     strings.Repeat("b", 3000),
			size:     1500,
			wantLens: []int{1500, 1500},
		},
		{
			name:     "短于窗口只有一块",
			text:     "hello",
			size:     1500,
			wantLens: []int{5},
		},
		{
			name:     "空文本无分块",
			text:     "",
			size:     1500,
			wantLens: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitFixed(tt.text, tt.size)
			if len(chunks) != len(tt.wantLens) {
				t.Fatalf("分块数不符: got %d, want %d", len(chunks), len(tt.wantLens))
			}
			for i, chunk := range chunks {
				if got := len([]rune(chunk)); got != tt.wantLens[i] {
					t.Errorf("分块 %d 长度不符: got %d, want %d", i, got, tt.wantLens[i])
				}
			}
		})
	}
}

func TestSplitFixedMultiByte(t *testing.T) {
	// 窗口按 rune 计数，多字节字符不能被截断
	text := strings.Repeat("信", 1600)
	chunks := SplitFixed(text, 1500)
	if len(chunks) != 2 {
		t.Fatalf("分块数不符: got %d, want 2", len(chunks))
	}
	if got := len([]rune(chunks[0])); got != 1500 {
		t.Errorf("首块长度不符: got %d, want 1500", got)
	}
	if got := len([]rune(chunks[1])); got != 100 {
		t.Errorf("尾块长度不符: got %d, want 100", got)
	}
	if chunks[0]+chunks[1] != text {
		t.Error("分块拼接后与原文不一致")
	}
}
