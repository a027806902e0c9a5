package image

import (
	"sync"
	"testing"
)

func TestPool_GetPut(t *testing.T) {
	pool := NewPool(2)

	buf := pool.Get(16, 8)
	if buf == nil {
		t.Fatal("Get returned nil")
	}
	if buf.Width() != 16 || buf.Height() != 8 {
		t.Errorf("Get size = %dx%d, want 16x8", buf.Width(), buf.Height())
	}

	pool.Put(buf)
	if pool.Len() != 1 {
		t.Errorf("Len = %d, want 1", pool.Len())
	}

	again := pool.Get(16, 8)
	if again != buf {
		t.Error("Get did not reuse pooled buffer")
	}
	if pool.Len() != 0 {
		t.Errorf("Len after reuse = %d, want 0", pool.Len())
	}
}

func TestPool_BucketLimit(t *testing.T) {
	pool := NewPool(2)
	for range 5 {
		pool.Put(MustNewBuf(4, 4))
	}
	if pool.Len() != 2 {
		t.Errorf("Len = %d, want 2 (bucket limit)", pool.Len())
	}
}

func TestPool_SizesAreSeparate(t *testing.T) {
	pool := NewPool(4)
	pool.Put(MustNewBuf(4, 4))

	got := pool.Get(8, 8)
	if got.Width() != 8 || got.Height() != 8 {
		t.Errorf("Get size = %dx%d, want 8x8", got.Width(), got.Height())
	}
	if pool.Len() != 1 {
		t.Errorf("4x4 buffer should remain pooled, Len = %d", pool.Len())
	}
}

func TestPool_InvalidAndNil(t *testing.T) {
	pool := NewPool(4)
	if pool.Get(0, 5) != nil {
		t.Error("Get with invalid size should return nil")
	}
	pool.Put(nil)
	if pool.Len() != 0 {
		t.Errorf("Len = %d, want 0", pool.Len())
	}
}

func TestPool_Concurrent(t *testing.T) {
	pool := NewPool(8)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				b := pool.Get(32, 32)
				pool.Put(b)
			}
		}()
	}
	wg.Wait()
	if pool.Len() > 8 {
		t.Errorf("Len = %d, exceeds bucket limit 8", pool.Len())
	}
}
