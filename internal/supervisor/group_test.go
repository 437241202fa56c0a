package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGroup_WaitReturnsFirstError(t *testing.T) {
	g, _ := New(context.Background())
	wantErr := errors.New("boom")

	g.Go(func() error { return wantErr })
	g.Go(func() error { return nil })

	if err := g.Wait(); !errors.Is(err, wantErr) {
		t.Errorf("Wait() error = %v, want %v", err, wantErr)
	}
}

func TestGroup_FailingLoopCancelsGroupContext(t *testing.T) {
	g, groupCtx := New(context.Background())
	started := make(chan struct{})
	observedCancel := make(chan struct{})

	g.Go(func() error {
		close(started)
		<-groupCtx.Done()
		close(observedCancel)
		return nil
	})
	g.Go(func() error {
		<-started
		return errors.New("fails immediately")
	})

	select {
	case <-observedCancel:
	case <-time.After(time.Second):
		t.Fatal("group context was not canceled after a sibling loop failed")
	}

	if err := g.Wait(); err == nil {
		t.Error("Wait() error = nil, want the sibling's failure")
	}
}

func TestGroup_AllSuccessfulReturnsNil(t *testing.T) {
	g, _ := New(context.Background())
	g.Go(func() error { return nil })
	g.Go(func() error { return nil })
	if err := g.Wait(); err != nil {
		t.Errorf("Wait() error = %v, want nil", err)
	}
}
