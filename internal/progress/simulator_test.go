package progress

import (
	"context"
	"testing"
	"time"
)

// collectSink 把事件收进切片，便于断言。
type collectSink struct {
	events []Event
}

func (s *collectSink) Send(event Event) error {
	s.events = append(s.events, event)
	return nil
}

func TestSimulatorPlaysFullScript(t *testing.T) {
	script := []Step{
		{After: 1 * time.Millisecond, Stage: "thinking", Detail: "a"},
		{After: 2 * time.Millisecond, Stage: "tool", Detail: "b"},
		{After: 3 * time.Millisecond, Stage: "done", Detail: "c"},
	}
	sink := &collectSink{}

	if err := NewSimulator(script).Run(context.Background(), sink); err != nil {
		t.Fatalf("播放失败: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("事件数不符: got %d, want 3", len(sink.events))
	}
	wantStages := []string{"thinking", "tool", "done"}
	for i, evt := range sink.events {
		if evt.Stage != wantStages[i] {
			t.Errorf("第 %d 个事件阶段不符: got %s, want %s", i, evt.Stage, wantStages[i])
		}
	}
}

func TestSimulatorCancel(t *testing.T) {
	script := []Step{
		{After: 1 * time.Millisecond, Stage: "thinking"},
		{After: 1 * time.Hour, Stage: "done"},
	}
	sink := &collectSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewSimulator(script).Run(ctx, sink)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("取消后应返回 context.Canceled: got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("取消后播放未及时结束")
	}

	if len(sink.events) != 1 {
		t.Errorf("取消前只应播放首个事件: got %d", len(sink.events))
	}
}

func TestSimulatorDefaultScript(t *testing.T) {
	sim := NewSimulator(nil)
	if len(sim.script) != len(DefaultScript) {
		t.Errorf("nil 脚本应回退到默认脚本")
	}
}
