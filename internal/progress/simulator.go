// Package progress 实现了对话期间的活动进度演示。
// 事件是按固定脚本播放的演出效果，不反映助手的真实执行状态。
package progress

import (
	"context"
	"time"
)

// Event 是一条推送给前端的活动事件。
type Event struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

// Step 定义了脚本中的一步：在 After 时刻推送对应事件。
type Step struct {
	After  time.Duration
	Stage  string
	Detail string
}

// Sink 接收模拟器产生的事件。推送失败时返回错误以终止播放。
type Sink interface {
	Send(event Event) error
}

// DefaultScript 是默认的播放脚本。
var DefaultScript = []Step{
	{After: 800 * time.Millisecond, Stage: "thinking", Detail: "正在分析您的问题"},
	{After: 2000 * time.Millisecond, Stage: "tool", Detail: "正在查阅相关资料"},
	{After: 3000 * time.Millisecond, Stage: "done", Detail: "回复已生成"},
}

// Simulator 按脚本播放活动事件。
type Simulator struct {
	script []Step
}

// NewSimulator 创建一个模拟器；script 为 nil 时使用默认脚本。
func NewSimulator(script []Step) *Simulator {
	if script == nil {
		script = DefaultScript
	}
	return &Simulator{script: script}
}

// Run 阻塞播放整个脚本。
// ctx 取消（连接断开）或 Sink 返回错误时提前结束。
func (s *Simulator) Run(ctx context.Context, sink Sink) error {
	start := time.Now()
	for _, step := range s.script {
		delay := step.After - time.Since(start)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := sink.Send(Event{Stage: step.Stage, Detail: step.Detail}); err != nil {
			return err
		}
	}
	return nil
}
