package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-oss/decider-go/execution"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/queue"
)

type fakeStore struct {
	tasks map[string]*model.TaskInstance
}

func (s *fakeStore) GetTask(context.Context, string) (*model.TaskInstance, error) { return nil, nil }
func (s *fakeStore) PutTask(_ context.Context, t *model.TaskInstance) error {
	s.tasks[t.TaskID] = t
	return nil
}

type fakeWorkflowLister struct {
	workflows []*model.WorkflowInstance
}

func (f *fakeWorkflowLister) ListRunningWorkflows(context.Context) ([]*model.WorkflowInstance, error) {
	return f.workflows, nil
}

func newTestServer(t *testing.T) (*Server, *queue.MemQueue) {
	t.Helper()
	q := queue.NewMemQueue()
	svc := execution.New(q, &fakeStore{tasks: make(map[string]*model.TaskInstance)}, &fakeWorkflowLister{}, nil)
	return New(":0", q, svc, nil), q
}

func TestHandleHealth_ReturnsOK(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleListQueues_ReturnsQueueSizes(t *testing.T) {
	s, q := newTestServer(t)
	require.NoError(t, q.Push(context.Background(), "tdA", "t1", 0))

	req := httptest.NewRequest(http.MethodGet, "/queues", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, 1, detail["tdA"])
}

func TestHandleQueueSize_ReturnsSizeForNamedQueue(t *testing.T) {
	s, q := newTestServer(t)
	require.NoError(t, q.Push(context.Background(), "tdA", "t1", 0))
	require.NoError(t, q.Push(context.Background(), "tdA", "t2", 0))

	req := httptest.NewRequest(http.MethodGet, "/queues/tdA", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["size"])
}

func TestHandleRequeue_DelegatesToExecutionService(t *testing.T) {
	s, q := newTestServer(t)
	now := time.Now()
	q.Now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodPost, "/queues/tdA/requeue", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body["requeued"])
}

func TestHandleMetrics_ServesPrometheusFormat(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
