package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/goalie/pkg/models"
)

func TestTaskRunner_RequestResponse(t *testing.T) {
	inbox := make(chan TaskComplete, 1)
	runner := NewTaskRunner(TaskExecutorFunc(func(_ context.Context, req ExecutionRequest) (string, error) {
		return "ran " + req.Task.ID, nil
	}), inbox)
	runner.Start()
	defer runner.Stop()

	if runner.State() != RunnerIdle {
		t.Errorf("initial state = %s, want idle", runner.State())
	}

	for seq := uint64(1); seq <= 3; seq++ {
		task := models.NewTask(string(rune('0'+seq)), "task")
		if err := runner.Send(TaskMessage{Seq: seq, Ctx: context.Background(), Request: ExecutionRequest{Task: task}}); err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		reply := <-inbox
		if reply.Seq != seq {
			t.Errorf("reply seq = %d, want %d", reply.Seq, seq)
		}
		if reply.Result != "ran "+task.ID {
			t.Errorf("reply result = %q", reply.Result)
		}
		if reply.TaskID != task.ID {
			t.Errorf("reply task = %q, want %q", reply.TaskID, task.ID)
		}
	}
}

func TestTaskRunner_RunningState(t *testing.T) {
	inbox := make(chan TaskComplete, 1)
	started := make(chan struct{})
	release := make(chan struct{})
	runner := NewTaskRunner(TaskExecutorFunc(func(context.Context, ExecutionRequest) (string, error) {
		close(started)
		<-release
		return "", nil
	}), inbox)
	runner.Start()
	defer runner.Stop()

	if err := runner.Send(TaskMessage{Seq: 1}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	<-started
	if runner.State() != RunnerRunning {
		t.Errorf("state = %s, want running", runner.State())
	}
	close(release)
	<-inbox
	if runner.State() != RunnerIdle {
		t.Errorf("state after completion = %s, want idle", runner.State())
	}
}

func TestTaskRunner_RecoversPanic(t *testing.T) {
	inbox := make(chan TaskComplete, 1)
	runner := NewTaskRunner(TaskExecutorFunc(func(context.Context, ExecutionRequest) (string, error) {
		panic("boom")
	}), inbox)
	runner.Start()
	defer runner.Stop()

	if err := runner.Send(TaskMessage{Seq: 7, Ctx: context.Background()}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	reply := <-inbox
	if !errors.Is(reply.Err, ErrExecution) {
		t.Errorf("reply err = %v, want ErrExecution", reply.Err)
	}
	if reply.Seq != 7 {
		t.Errorf("reply seq = %d, want 7", reply.Seq)
	}
}

func TestTaskRunner_SendAfterStop(t *testing.T) {
	runner := NewTaskRunner(TaskExecutorFunc(func(context.Context, ExecutionRequest) (string, error) {
		return "", nil
	}), make(chan TaskComplete, 1))
	runner.Start()
	runner.Stop()
	runner.Stop()

	if err := runner.Send(TaskMessage{Seq: 1, Ctx: context.Background()}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Stop = %v, want ErrClosed", err)
	}
}

func TestTaskRunner_SendHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	runner := NewTaskRunner(TaskExecutorFunc(func(context.Context, ExecutionRequest) (string, error) {
		<-block
		return "", nil
	}), make(chan TaskComplete, 1))
	runner.Start()
	defer func() {
		go runner.Stop()
	}()

	// First message is taken by the runner, second fills the mailbox.
	if err := runner.Send(TaskMessage{Seq: 1, Ctx: context.Background()}); err != nil {
		t.Fatalf("Send 1 failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for runner.State() != RunnerRunning && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := runner.Send(TaskMessage{Seq: 2, Ctx: context.Background()}); err != nil {
		t.Fatalf("Send 2 failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := runner.Send(TaskMessage{Seq: 3, Ctx: ctx}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send on full mailbox = %v, want DeadlineExceeded", err)
	}
}
