package mainloop

import "testing"

func TestCoalescerMergesBurstIntoSingleTask(t *testing.T) {
	queue := make([]func(), 0, 8)
	c := NewCoalescer(func(fn func()) { queue = append(queue, fn) })

	value := 0
	for i := 1; i <= 5; i++ {
		v := i
		c.Post("tab-1:url", func() { value = v })
	}

	if len(queue) != 1 {
		t.Fatalf("expected 1 scheduled callback, got %d", len(queue))
	}
	queue[0]()

	if value != 5 {
		t.Fatalf("expected latest callback to run, got %d", value)
	}
}

func TestCoalescerKeysAreIndependent(t *testing.T) {
	queue := make([]func(), 0, 4)
	c := NewCoalescer(func(fn func()) { queue = append(queue, fn) })

	var got []string
	c.Post("tab-1:url", func() { got = append(got, "url") })
	c.Post("tab-1:title", func() { got = append(got, "title") })

	if len(queue) != 2 {
		t.Fatalf("expected 2 scheduled callbacks, got %d", len(queue))
	}
	for _, fn := range queue {
		fn()
	}
	if len(got) != 2 || got[0] != "url" || got[1] != "title" {
		t.Fatalf("unexpected run order: %v", got)
	}
}

func TestCoalescerCancelPrefixDropsPendingWork(t *testing.T) {
	queue := make([]func(), 0, 4)
	c := NewCoalescer(func(fn func()) { queue = append(queue, fn) })

	ran := map[string]bool{}
	c.Post("tab-1:url", func() { ran["tab-1"] = true })
	c.Post("tab-2:url", func() { ran["tab-2"] = true })
	c.CancelPrefix("tab-1:")

	for _, fn := range queue {
		fn()
	}
	if ran["tab-1"] {
		t.Fatalf("expected canceled work to be dropped")
	}
	if !ran["tab-2"] {
		t.Fatalf("expected other keys to run")
	}

	// A canceled key can be scheduled again.
	c.Post("tab-1:url", func() { ran["tab-1"] = true })
	queue[len(queue)-1]()
	if !ran["tab-1"] {
		t.Fatalf("expected re-posted work to run")
	}
}

func TestCoalescerDropsWorkAfterDestroy(t *testing.T) {
	queue := make([]func(), 0, 4)
	c := NewCoalescer(func(fn func()) { queue = append(queue, fn) })

	ran := false
	c.Post("tab-1:title", func() { ran = true })
	c.Destroy()

	if len(queue) != 1 {
		t.Fatalf("expected one queued callback before destroy, got %d", len(queue))
	}
	queue[0]()

	if ran {
		t.Fatalf("expected queued work to be dropped after destroy")
	}

	c.Post("tab-1:title", func() { ran = true })
	if len(queue) != 1 {
		t.Fatalf("expected no new callback after destroy, got %d", len(queue))
	}
}

func TestNewCoalescerPanicsOnNilPost(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected NewCoalescer to panic when post is nil")
		}
	}()

	_ = NewCoalescer(nil)
}
