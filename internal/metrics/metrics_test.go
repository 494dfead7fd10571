package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(samples []Sample, name string, labels map[string]string) (Sample, bool) {
	for _, s := range samples {
		if s.Name != name {
			continue
		}
		match := true
		for k, v := range labels {
			if s.Labels[k] != v {
				match = false
			}
		}
		if match {
			return s, true
		}
	}
	return Sample{}, false
}

func TestSnapshot_RecordsAccumulate(t *testing.T) {
	before, err := Snapshot()
	require.NoError(t, err)
	added, _ := find(before, "rdfstore_quads_added_total", nil)

	RecordQuadsAdded(3)
	RecordQuery("select", time.Millisecond)
	RecordLoad(time.Millisecond)

	after, err := Snapshot()
	require.NoError(t, err)

	got, ok := find(after, "rdfstore_quads_added_total", nil)
	require.True(t, ok)
	assert.Equal(t, added.Value+3, got.Value)

	q, ok := find(after, "rdfstore_queries_total", map[string]string{"form": "select"})
	require.True(t, ok)
	assert.GreaterOrEqual(t, q.Value, 1.0)

	load, ok := find(after, "rdfstore_load_seconds", nil)
	require.True(t, ok)
	assert.GreaterOrEqual(t, load.Value, 1.0)
}

func TestSnapshot_Sorted(t *testing.T) {
	RecordUpdate()
	samples, err := Snapshot()
	require.NoError(t, err)
	for i := 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i-1].Name, samples[i].Name)
	}
}
