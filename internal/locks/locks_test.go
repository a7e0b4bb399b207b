package locks

import (
	"context"
	"testing"

	"github.com/yungbote/matchmaker-backend/internal/types"
)

func TestMemoryLockExcludesSameKey(t *testing.T) {
	lock := NewMemoryLock()
	ctx := context.Background()

	release, err := lock.Acquire(ctx, 1, types.PartitionProduction)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := lock.Acquire(ctx, 1, types.PartitionProduction); err == nil {
		t.Fatal("second acquire should fail while held")
	}

	// Other batches and partitions are independent keys.
	releaseTest, err := lock.Acquire(ctx, 1, types.PartitionTest)
	if err != nil {
		t.Fatalf("test partition acquire: %v", err)
	}
	releaseTest()
	releaseOther, err := lock.Acquire(ctx, 2, types.PartitionProduction)
	if err != nil {
		t.Fatalf("other batch acquire: %v", err)
	}
	releaseOther()

	release()
	release2, err := lock.Acquire(ctx, 1, types.PartitionProduction)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	release2()
}

func TestKeyFormat(t *testing.T) {
	got := Key(3, types.PartitionTest)
	want := "matchmaker:matching:3:test"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
}
