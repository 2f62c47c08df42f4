package service_test

import (
	"sync"
	"testing"

	"github.com/ndewijer/Fund-Administration-Backend/internal/service"
	"github.com/ndewijer/Fund-Administration-Backend/internal/testutil"
)

// TestFundLocker tests per-fund serialization.
//
// WHY: Concurrent calculations against the same fund must be serialized
// while different funds proceed independently; losing either property
// corrupts committed capital under concurrent allocation requests.
func TestFundLocker(t *testing.T) {
	t.Run("serializes access to the same fund", func(t *testing.T) {
		locker := service.NewFundLocker()
		fundID := testutil.MakeID()

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locker.Lock(fundID)
				defer unlock()
				counter++
			}()
		}
		wg.Wait()

		if counter != 50 {
			t.Errorf("Expected 50 serialized increments, got %d", counter)
		}
	})

	t.Run("different funds do not block each other", func(t *testing.T) {
		locker := service.NewFundLocker()

		unlockA := locker.Lock(testutil.MakeID())
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB := locker.Lock(testutil.MakeID())
			unlockB()
			close(done)
		}()

		<-done
	})

	t.Run("overlapping lock sets do not deadlock", func(t *testing.T) {
		locker := service.NewFundLocker()
		a, b, c := testutil.MakeID(), testutil.MakeID(), testutil.MakeID()

		counter := 0
		var wg sync.WaitGroup
		// Opposite acquisition orders deadlock unless LockMany sorts.
		sets := [][]string{{a, b, c}, {c, b, a}, {b, a, a, c}}
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func(set []string) {
				defer wg.Done()
				unlock := locker.LockMany(set)
				defer unlock()
				counter++
			}(sets[i%len(sets)])
		}
		wg.Wait()

		if counter != 30 {
			t.Errorf("Expected 30 serialized increments, got %d", counter)
		}
	})
}
