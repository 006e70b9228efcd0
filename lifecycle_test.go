package searchterms

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/terms"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	k := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		active  atomic.Int32
		overlap atomic.Bool
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("dataset-1")
			defer unlock()
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			active.Add(-1)
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
	assert.Empty(t, k.locks, "released keys are forgotten")
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}

func TestUploadFlagsTakeOnce(t *testing.T) {
	u := newUploadFlags()
	u.set("resource-1", true)
	assert.True(t, u.take("resource-1"))
	assert.False(t, u.take("resource-1"))
	assert.False(t, u.take("resource-2"))
}

func TestFlatten(t *testing.T) {
	assert.Nil(t, flatten(terms.New("Gene")))

	tbl := terms.New("Gene", "Gene Term")
	require.NoError(t, tbl.Append("BRCA1", "breast"))
	require.NoError(t, tbl.Append("TP53", ""))
	assert.Equal(t, []string{"BRCA1", "breast", "TP53", ""}, flatten(tbl))
}
