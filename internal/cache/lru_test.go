package cache

import (
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](2)
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) on empty cache = ok")
	}
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](3)
	for i := range 3 {
		c.Set(i, i)
	}
	c.Get(0) // 1 is now the oldest
	c.Set(3, 3)

	tests := []struct {
		key  int
		want bool
	}{
		{0, true},
		{1, false},
		{2, true},
		{3, true},
	}
	for _, tt := range tests {
		if _, ok := c.Get(tt.key); ok != tt.want {
			t.Errorf("Get(%d) ok = %v, want %v", tt.key, ok, tt.want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, []int](4)
	calls := 0
	create := func() []int {
		calls++
		return []int{calls}
	}
	a := c.GetOrCreate("k", create)
	b := c.GetOrCreate("k", create)
	if calls != 1 || &a[0] != &b[0] {
		t.Errorf("GetOrCreate built %d values, want one shared value", calls)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Len != 1 || st.Limit != 4 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 entry", st)
	}
}

func TestCacheClear(t *testing.T) {
	c := New[int, int](0)
	c.Set(1, 1)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	c.Set(2, 2)
	if v, ok := c.Get(2); !ok || v != 2 {
		t.Error("cache unusable after Clear")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := (g*31 + i) % 40
				if v := c.GetOrCreate(k, func() int { return k * 2 }); v != k*2 {
					t.Errorf("GetOrCreate(%d) = %d, want %d", k, v, k*2)
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len() = %d, want <= 16", c.Len())
	}
}
