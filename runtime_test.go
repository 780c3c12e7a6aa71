package taskz

import (
	"errors"
	"fmt"
	"testing"
)

func TestRuntime(t *testing.T) {
	t.Run("Rejects Invalid Worker Counts", func(t *testing.T) {
		if _, err := New(0); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("expected ErrInvalidWorkerCount, got %v", err)
		}
	})

	t.Run("Runs Tasks End To End", func(t *testing.T) {
		rt, err := New(4)
		if err != nil {
			t.Fatalf("runtime construction failed: %v", err)
		}
		defer rt.Close() //nolint:errcheck

		res := Map(NewTask(rt, func() string { return "async" }), func(s string) string {
			return s + "-ery"
		}).Block()

		if res.Value() != "async-ery" {
			t.Errorf("expected %q, got %q", "async-ery", res.Value())
		}
	})

	t.Run("Close Is Idempotent", func(t *testing.T) {
		rt, err := New(2)
		if err != nil {
			t.Fatalf("runtime construction failed: %v", err)
		}
		if err := rt.Close(); err != nil {
			t.Errorf("first close: %v", err)
		}
		if err := rt.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
	})
}

func ExampleNewTask() {
	rt, _ := New(4)
	defer rt.Close() //nolint:errcheck

	task := Map(Map(NewTask(rt, func() int { return 7 }),
		func(x int) int { return x + 5 }),
		func(x int) int { return x * 2 })

	fmt.Println(task.Block().Value())
	// Output: 24
}

func ExampleTaskValueSource() {
	rt, _ := New(4)
	defer rt.Close() //nolint:errcheck

	source := NewValueSource[int](rt)
	task := source.Create()
	source.Complete(100)

	value, err := task.Block().Unpack()
	fmt.Println(value, err)
	// Output: 100 <nil>
}

func ExampleWhenAll() {
	rt, _ := New(4)
	defer rt.Close() //nolint:errcheck

	tasks := []Task[int]{
		NewTask(rt, func() int { return 1 }),
		NewTask(rt, func() int { return 2 }),
		NewTask(rt, func() int { return 3 }),
	}

	fmt.Println(WhenAll(rt, tasks).Block().Value())
	// Output: [1 2 3]
}
