package live

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var mu sync.Mutex
	fired := make(map[string]int)

	d := NewDebouncer(50*time.Millisecond, func(subjectID string) {
		mu.Lock()
		fired[subjectID]++
		mu.Unlock()
	})
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Notify("alice")
		time.Sleep(10 * time.Millisecond)
	}
	d.Notify("bob")

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired["alice"], "burst should collapse into one callback")
	assert.Equal(t, 1, fired["bob"])
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var mu sync.Mutex
	count := 0

	d := NewDebouncer(50*time.Millisecond, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	d.Notify("alice")
	d.Stop()

	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestDebouncerIndependentSubjects(t *testing.T) {
	var mu sync.Mutex
	var order []string

	d := NewDebouncer(30*time.Millisecond, func(subjectID string) {
		mu.Lock()
		order = append(order, subjectID)
		mu.Unlock()
	})
	defer d.Stop()

	d.Notify("alice")
	time.Sleep(20 * time.Millisecond)
	// alice's timer is still pending; a new subject must not reset it
	d.Notify("bob")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, order, 2)
	assert.Equal(t, "alice", order[0])
}
