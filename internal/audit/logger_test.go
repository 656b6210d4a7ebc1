package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceFirstAndLastKind(t *testing.T) {
	trace := NewTrace("t-1", time.Now())
	trace.Append(EventQueryReceived, QueryReceivedData{RawText: "who won in 1965?"})
	trace.Append(EventIntentClassified, IntentClassifiedData{Confidence: 1})
	trace.Append(EventAnswerAssembled, AnswerAssembledData{AnswerLength: 42, SourceCount: 0})

	assert.Equal(t, EventQueryReceived, trace.FirstKind())
	assert.Equal(t, EventAnswerAssembled, trace.LastKind())
	assert.True(t, trace.HasKind(EventIntentClassified))
	assert.False(t, trace.HasKind(EventEmbeddingDone))
}

func TestMemorySinkCollectsTraces(t *testing.T) {
	sink := NewMemorySink()
	logger := NewLogger(sink)

	trace := NewTrace("t-1", time.Now())
	trace.Append(EventQueryReceived, nil)
	trace.Append(EventError, ErrorData{Stage: "embedding"})

	require.NoError(t, logger.Persist(trace))
	require.NoError(t, logger.Persist(trace))

	assert.Len(t, sink.Traces(), 2)
}

func TestFileSinkWritesOneJSONLinePerTrace(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	defer sink.Close()

	logger := NewLogger(sink)
	trace := NewTrace("t-99", time.Now())
	trace.Append(EventQueryReceived, QueryReceivedData{RawText: "test", Length: 4})
	trace.Append(EventAnswerAssembled, AnswerAssembledData{AnswerLength: 10, SourceCount: 2})

	require.NoError(t, logger.Persist(trace))
	require.NoError(t, logger.Persist(trace))

	today := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, "audit_log_"+today+".jsonl")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)

	var decoded Trace
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "t-99", decoded.TraceID)
	assert.Len(t, decoded.Events, 2)
}
