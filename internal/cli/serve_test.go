package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/runoshun/maestro/internal/client"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/runoshun/maestro/internal/infra/redisbridge"
	"github.com/runoshun/maestro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for a writer and a concurrent reader.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// start runs args in the background and returns its output and result.
func start(ctx context.Context, e *env, args ...string) (*syncBuffer, <-chan error) {
	root := newRootCommand(e, "test-version")
	out, errOut := &syncBuffer{}, &syncBuffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()
	return out, done
}

func TestServe(t *testing.T) {
	dir := t.TempDir()
	e := &env{getenv: func(string) string { return "" }, workDir: dir}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, done := start(ctx, e, "serve", "--addr", "127.0.0.1:0", "--store", domain.StoreKindJSON)

	addr := regexp.MustCompile(`listening on (http://\S+)`)
	require.Eventually(t, func() bool { return addr.MatchString(out.String()) }, 5*time.Second, 10*time.Millisecond)
	url := addr.FindStringSubmatch(out.String())[1]

	c := client.New(url)
	require.NoError(t, c.Health(ctx))
	_, err := c.CreateProject(ctx, projectRequest(dir))
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
	_, err = os.Stat(filepath.Join(dir, domain.DefaultStorePath))
	assert.NoError(t, err, "json store written below the working directory")
}

func TestServe_InvalidStore(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "serve", "--addr", "127.0.0.1:0", "--store", "sqlite")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("[redis]\naddr = %q\nchannel = \"test:events\"\n", mr.Addr())), 0o600))
	e := &env{getenv: func(string) string { return "" }, workDir: dir}

	out, done := start(context.Background(), e, "events", "--count", "1")

	cfg := domain.NewDefaultConfig()
	cfg.Redis.Addr = mr.Addr()
	bridge, err := redisbridge.New(redisbridge.Options(cfg.Redis), "test:events", testutil.NewMockClock(), nil)
	require.NoError(t, err)
	defer func() { _ = bridge.Close() }()

	// The subscription may not be confirmed yet; keep publishing until the command exits.
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Contains(t, out.String(), "task:created")
			assert.Contains(t, out.String(), `"title":"hello"`)
			return
		case <-tick.C:
			require.NoError(t, bridge.Publish(context.Background(), event.Envelope{
				Name:    "task:created",
				Payload: map[string]string{"title": "hello"},
			}))
		case <-deadline:
			t.Fatal("events did not receive a message")
		}
	}
}

func projectRequest(dir string) httpapi.CreateProjectRequest {
	return httpapi.CreateProjectRequest{Name: "demo", WorkingDir: dir}
}
