package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id1 := GenerateRunID()
	id2 := GenerateRunID()

	if id1 == "" {
		t.Error("GenerateRunID returned empty string")
	}

	if id1 == id2 {
		t.Error("GenerateRunID should return unique IDs")
	}

	if !strings.HasPrefix(id1, "run-") {
		t.Errorf("GenerateRunID should start with 'run-': %s", id1)
	}
}

func TestGenerateRunIDConcurrent(t *testing.T) {
	const n = 100
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		ids = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := GenerateRunID()
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(ids) != n {
		t.Errorf("expected %d unique IDs, got %d", n, len(ids))
	}
}
