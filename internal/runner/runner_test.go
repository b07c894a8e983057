package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/asybalance/internal/api"
	"github.com/GriffinCanCode/asybalance/internal/infrastructure/logging"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/storage"
	"github.com/GriffinCanCode/asybalance/internal/rpc"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

const counterScript = `
function main() {
	var visits = AnyBalance.getData('visits', 0) + 1;
	AnyBalance.setData('visits', visits);
	AnyBalance.saveData();
	AnyBalance.trace('visit ' + visits);
	AnyBalance.setResult({visits: visits});
}`

type recorder struct {
	mu       sync.Mutex
	started  []string
	finished int
	passes   []string
	results  []string
	requests int
}

func (r *recorder) RecordCall(string) {}

func (r *recorder) RecordPass(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = append(r.passes, outcome)
}

func (r *recorder) RecordResult(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, kind)
}

func (r *recorder) ObserveRequest(string, int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
}

func (r *recorder) SessionStarted(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, mode)
}

func (r *recorder) SessionFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func TestRunPersistsAccountData(t *testing.T) {
	store := storage.NewMemory()
	r := New(Config{Store: store})
	ctx := context.Background()
	prefs := types.Preferences{"login": "bob"}

	first, err := r.Run(ctx, Job{Script: counterScript, Preferences: prefs})
	require.NoError(t, err)
	second, err := r.Run(ctx, Job{Script: counterScript, Preferences: prefs})
	require.NoError(t, err)

	assert.Equal(t, first.AccountID, second.AccountID)
	assert.Len(t, first.AccountID, 32)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	require.Len(t, second.Results, 1)
	assert.Equal(t, 2.0, second.Results[0].Data["visits"])
	assert.Equal(t, []types.TraceEntry{{Caller: "trace", Message: "visit 2"}}, second.Trace)

	data, err := store.Load(ctx, second.AccountID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"visits":2}`, data)
}

func TestRunExplicitAccount(t *testing.T) {
	r := New(Config{})
	resp, err := r.Run(context.Background(), Job{Script: counterScript, AccountID: "acct-7"})
	require.NoError(t, err)
	assert.Equal(t, "acct-7", resp.AccountID)

	_, err = r.Run(context.Background(), Job{Script: counterScript, AccountID: "../escape"})
	assert.ErrorIs(t, err, storage.ErrInvalidAccount)
}

func TestRunLogsCarrySession(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := New(Config{Logger: zap.New(core)})

	resp, err := r.Run(context.Background(), Job{Script: counterScript, AccountID: "acct-9"})
	require.NoError(t, err)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		assert.Equal(t, resp.SessionID, fields[logging.FieldSession], entry.Message)
		assert.Equal(t, "acct-9", fields[logging.FieldAccount], entry.Message)
	}
}

func TestRunEmptyScript(t *testing.T) {
	_, err := New(Config{}).Run(context.Background(), Job{})
	assert.ErrorIs(t, err, ErrEmptyScript)
}

func TestRunMultiPassWithMetrics(t *testing.T) {
	rec := &recorder{}
	r := New(Config{Metrics: rec})

	prefs := types.Preferences{
		types.PrefCountersSet: []interface{}{
			[]interface{}{"balance"},
			[]interface{}{"traffic"},
			[]interface{}{"bonus"},
		},
	}
	script := `
		function main() {
			AnyBalance.setLoginSuccessful();
			if (AnyBalance.isAvailable('traffic'))
				throw new AnyBalance.Error('Blocked', {fatal: true});
			AnyBalance.setResult({ok: true});
		}`

	resp, err := r.Run(context.Background(), Job{Script: script, Preferences: prefs})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.True(t, resp.Results[1].Fatal())

	assert.Equal(t, []string{"local"}, rec.started)
	assert.Equal(t, 1, rec.finished)
	assert.Equal(t, []string{"ok", "error"}, rec.passes)
	assert.Equal(t, []string{"success", "error"}, rec.results)
}

func TestRunTimeout(t *testing.T) {
	r := New(Config{})
	resp, err := r.Run(context.Background(), Job{
		Script:  `function main() { for (;;) {} }`,
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, api.MsgTimedOut, resp.Results[0].Message)
	assert.True(t, resp.Results[0].Unhandled)
}

func TestRunAppliesOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2}) // "Привет" in windows-1251
	}))
	defer srv.Close()

	base, err := options.Parse([]byte(`{"defaultCharset": "utf-8"}`))
	require.NoError(t, err)
	jobOpts, err := options.Parse([]byte(`{"defaultCharset": "windows-1251"}`))
	require.NoError(t, err)

	rec := &recorder{}
	r := New(Config{Options: base, Metrics: rec})
	resp, err := r.Run(context.Background(), Job{
		Script:  `function main() { AnyBalance.setResult({text: AnyBalance.requestGet('` + srv.URL + `/').getString()}); }`,
		Options: jobOpts,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Привет", resp.Results[0].Data["text"])
	assert.Equal(t, 1, rec.requests)
}

func TestRunRemoteStorageAndTrace(t *testing.T) {
	store := storage.NewMemory()
	view, err := storage.ForAccount(store, "remote", nil)
	require.NoError(t, err)
	require.NoError(t, view.SaveData(context.Background(), `{"visits":4}`))

	var traced []string
	tracer := traceFunc(func(msg string) { traced = append(traced, msg) })
	d := rpc.NewDispatcher("", rpc.Backend{Storage: view, Tracer: tracer}, nil)
	channel := api.ChannelFunc(func(ctx context.Context, request string) (string, error) {
		return d.Respond(ctx, request), nil
	})

	rec := &recorder{}
	r := New(Config{Metrics: rec})
	resp, err := r.Run(context.Background(), Job{Script: counterScript, Channel: channel})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, 5.0, resp.Results[0].Data["visits"])
	assert.Empty(t, resp.Trace)
	assert.Equal(t, []string{"visit 5"}, traced)
	assert.Equal(t, []string{"remote"}, rec.started)

	data, err := view.LoadData(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"visits":5}`, data)
}

func TestRunForwardsResults(t *testing.T) {
	var forwarded []types.Result
	sink := sinkFunc(func(res types.Result) { forwarded = append(forwarded, res) })

	resp, err := New(Config{}).Run(context.Background(), Job{Script: counterScript, Results: sink})
	require.NoError(t, err)
	assert.Equal(t, resp.Results, forwarded)
}

func TestJobFromRequest(t *testing.T) {
	job, err := JobFromRequest(types.ExecuteRequest{
		Script:    "function main(){}",
		Task:      "balance",
		TimeoutMS: 1500,
		Options:   []byte(`{"perDomain": {"b.com": {"proxy": "x"}, "a.com": {"proxy": "y"}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "balance", job.Task)
	assert.Equal(t, 1500*time.Millisecond, job.Timeout)
	assert.Equal(t, []string{"b.com", "a.com"}, job.Options.Domains().Keys())

	_, err = JobFromRequest(types.ExecuteRequest{Script: "x", Options: []byte(`{broken`)})
	assert.Error(t, err)
}

type traceFunc func(msg string)

func (f traceFunc) Trace(_ context.Context, msg, _ string) error {
	f(msg)
	return nil
}

type sinkFunc func(res types.Result)

func (f sinkFunc) SetResult(_ context.Context, res types.Result) error {
	f(res)
	return nil
}
