package ids

import (
	"sort"
	"sync"
	"testing"
)

func TestNewIsSortableAndUnique(t *testing.T) {
	const n = 1000
	out := make([]string, n)
	for i := range out {
		out[i] = New()
	}

	seen := make(map[string]bool, n)
	for _, id := range out {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if !IsValid(id) {
			t.Fatalf("invalid id %s", id)
		}
	}

	if !sort.StringsAreSorted(out) {
		t.Fatalf("ids generated in sequence must sort in creation order")
	}
}

func TestNewIsSafeForConcurrentUse(t *testing.T) {
	const workers, perWorker = 8, 200
	var mu sync.Mutex
	seen := make(map[string]bool, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := New()
				mu.Lock()
				if seen[id] {
					mu.Unlock()
					t.Errorf("duplicate id %s", id)
					return
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-ulid") {
		t.Fatalf("garbage accepted")
	}
	if !IsValid(New()) {
		t.Fatalf("fresh id rejected")
	}
}
