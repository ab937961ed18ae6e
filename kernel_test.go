package gevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	kernelError "github.com/bassbeaver/gevents/error"
	"github.com/bassbeaver/gevents/event_bus"
	"github.com/bassbeaver/gevents/event_bus/event"
	"github.com/bassbeaver/gevents/event_bus/listener"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const meowConfig = `
services:
  human:
    arguments: []
event_listeners:
  - event: meow
    listener: human:PetCat
  - event: meow
    listener: human:DayDream
    priority: 0
  - event: meow
    listener: human:Ponder
logging:
  level: error
`

type human struct {
	heard []string
}

func (h *human) PetCat() {
	h.heard = append(h.heard, "pet cat")
}

func (h *human) DayDream() error {
	h.heard = append(h.heard, "day dream")
	return nil
}

func (h *human) Ponder(info interface{}) {
	h.heard = append(h.heard, fmt.Sprintf("ponder: %v", info))
}

func newHuman() *human {
	return &human{}
}

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func newTestKernel(t *testing.T, content string) *Kernel {
	t.Helper()
	kernel, err := NewKernel(writeConfig(t, map[string]string{"main.yaml": content}))
	require.NoError(t, err)
	return kernel
}

func TestKernel_ConfiguredListenersKeepPriorityOrder(t *testing.T) {
	kernel := newTestKernel(t, meowConfig)
	require.NoError(t, kernel.RegisterService("human", newHuman, true))

	require.NoError(t, kernel.Launch(context.Background()))
	require.Equal(t, 3, kernel.GetRegistry().Len("meow"))

	require.NoError(t, kernel.GetRegistry().Trigger("meow", "The cat is hungry!"))

	h, ok := kernel.GetContainer().GetByAlias("human").(*human)
	require.True(t, ok)
	assert.Equal(t, []string{"day dream", "pet cat", "ponder: The cat is hungry!"}, h.heard)
	assert.True(t, kernel.GetRegistry().IsDone("meow"))
}

func TestKernel_LaunchFiresOnce(t *testing.T) {
	kernel := newTestKernel(t, "logging:\n  level: error\n")
	launches := 0
	var payload *event.ApplicationLaunched

	_, err := kernel.RegisterListener(event_bus.KernelEventApplicationLaunched, func(arg interface{}) {
		launches++
		payload, _ = arg.(*event.ApplicationLaunched)
	}, listener.DefaultPriority)
	require.NoError(t, err)
	_, err = kernel.RegisterListener("later", func() {}, listener.DefaultPriority)
	require.NoError(t, err)

	require.NoError(t, kernel.Launch(context.Background()))
	require.NoError(t, kernel.Launch(context.Background()))

	assert.Equal(t, 1, launches)
	require.NotNil(t, payload)
	assert.Contains(t, payload.Tags, "later")
	assert.Same(t, kernel.GetContainer(), payload.GetContainer())
	assert.True(t, kernel.GetRegistry().IsDone(event_bus.KernelEventApplicationLaunched))
}

func TestKernel_TerminateCollectsErrors(t *testing.T) {
	kernel := newTestKernel(t, "logging:\n  level: error\n")
	listenerFailure := errors.New("could not flush")
	serveFailure := errors.New("listen failed")

	_, err := kernel.RegisterListener(event_bus.KernelEventApplicationTermination, func(arg interface{}) {
		termination := arg.(*event.ApplicationTermination)
		*termination.Errors = append(*termination.Errors, listenerFailure)
	}, listener.DefaultPriority)
	require.NoError(t, err)

	require.NoError(t, kernel.Launch(context.Background()))
	err = kernel.Terminate(context.Background(), []error{serveFailure})

	assert.ErrorIs(t, err, serveFailure)
	assert.ErrorIs(t, err, listenerFailure)
	assert.True(t, kernel.GetRegistry().IsDone(event_bus.KernelEventApplicationTermination))
}

func TestKernel_TerminateReportsListenerFailure(t *testing.T) {
	kernel := newTestKernel(t, "logging:\n  level: error\n")

	_, err := kernel.RegisterListener(event_bus.KernelEventApplicationTermination, func() error {
		return errors.New("refused")
	}, listener.DefaultPriority)
	require.NoError(t, err)

	err = kernel.Terminate(context.Background(), nil)

	assert.ErrorIs(t, err, kernelError.ErrListenerFailed)
	assert.False(t, kernel.GetRegistry().IsDone(event_bus.KernelEventApplicationTermination))
}

func TestKernel_DonePolicyFromConfig(t *testing.T) {
	kernel := newTestKernel(t, "registry:\n  done_policy: when_fired\nlogging:\n  level: error\n")

	require.NoError(t, kernel.GetRegistry().Trigger("nobody", nil))
	assert.False(t, kernel.GetRegistry().IsDone("nobody"))

	kernel = newTestKernel(t, "logging:\n  level: error\n")

	require.NoError(t, kernel.GetRegistry().Trigger("nobody", nil))
	assert.True(t, kernel.GetRegistry().IsDone("nobody"))
}

func TestKernel_InvalidConfig(t *testing.T) {
	_, err := NewKernel(writeConfig(t, map[string]string{
		"main.yaml": "registry:\n  done_policy: sometimes\n",
	}))
	require.Error(t, err)
	assertConfigError(t, err)

	_, err = NewKernel(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestKernel_InvalidListenerConfig(t *testing.T) {
	testCases := map[string]string{
		"priority out of range": "event_listeners:\n  - event: meow\n    listener: human:PetCat\n    priority: 300\n",
		"missing method":        "event_listeners:\n  - event: meow\n    listener: human\n",
		"missing event":         "event_listeners:\n  - listener: human:PetCat\n",
		"unknown method":        "event_listeners:\n  - event: meow\n    listener: human:Sleep\n",
		"unsupported signature": "event_listeners:\n  - event: meow\n    listener: human:Rename\n",
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			kernel := newTestKernel(t, content+"services:\n  human:\n    arguments: []\nlogging:\n  level: error\n")
			require.NoError(t, kernel.RegisterService("human", newRenamingHuman, true))

			err := kernel.Launch(context.Background())

			require.Error(t, err)
			assertConfigError(t, err)
			assert.False(t, kernel.GetRegistry().IsDone(event_bus.KernelEventApplicationLaunched))
		})
	}
}

func TestKernel_UnknownListenerServiceIsConfigError(t *testing.T) {
	kernel := newTestKernel(t, "event_listeners:\n  - event: meow\n    listener: ghost:Boo\nlogging:\n  level: error\n")

	var err error
	require.NotPanics(t, func() {
		err = kernel.LoadListeners()
	})

	require.Error(t, err)
	assertConfigError(t, err)
	assert.Contains(t, err.Error(), "service ghost not found")
}

func TestKernel_FailedLoadLeavesRegistryUnchanged(t *testing.T) {
	content := "event_listeners:\n" +
		"  - event: meow\n    listener: human:PetCat\n" +
		"  - event: meow\n    listener: human:NoSuchMethod\n" +
		"services:\n  human:\n    arguments: []\nlogging:\n  level: error\n"
	kernel := newTestKernel(t, content)
	require.NoError(t, kernel.RegisterService("human", newHuman, true))

	for attempt := 0; attempt < 2; attempt++ {
		err := kernel.LoadListeners()
		require.Error(t, err)
		assertConfigError(t, err)
		assert.Equal(t, 0, kernel.GetRegistry().Len("meow"))
	}
}

func TestKernel_LoadOnDoneTagRemovesEarlierListeners(t *testing.T) {
	content := "event_listeners:\n" +
		"  - event: purr\n    listener: human:PetCat\n" +
		"  - event: meow\n    listener: human:DayDream\n" +
		"services:\n  human:\n    arguments: []\nlogging:\n  level: error\n"
	kernel := newTestKernel(t, content)
	require.NoError(t, kernel.RegisterService("human", newHuman, true))
	require.NoError(t, kernel.GetRegistry().Trigger("meow", nil))

	err := kernel.LoadListeners()

	require.Error(t, err)
	assertConfigError(t, err)
	assert.Contains(t, err.Error(), kernelError.ErrTagDone.Error())
	assert.Equal(t, 0, kernel.GetRegistry().Len("purr"))
	assert.Empty(t, kernel.GetRegistry().Tags())
}

type renamingHuman struct {
	human
}

func (h *renamingHuman) Rename(name string) {}

func newRenamingHuman() *renamingHuman {
	return &renamingHuman{}
}

func TestKernel_RegisterServiceRequiresConfig(t *testing.T) {
	kernel := newTestKernel(t, "logging:\n  level: error\n")

	assert.Error(t, kernel.RegisterService("human", newHuman, true))
}

func TestKernel_InspectionApi(t *testing.T) {
	kernel := newTestKernel(t, "logging:\n  level: error\n")
	registry := kernel.GetRegistry()

	_, err := registry.RegisterWithPriority("meow", listener.Func(func() error { return nil }), 3)
	require.NoError(t, err)
	_, err = registry.Register("purr", listener.Func(func() error { return nil }))
	require.NoError(t, err)
	require.NoError(t, registry.Trigger("purr", nil))

	server := httptest.NewServer(kernel.Handler())
	defer server.Close()

	t.Run("events", func(t *testing.T) {
		var snapshot Snapshot
		getJson(t, server.URL+"/events", http.StatusOK, &snapshot)

		require.Len(t, snapshot.Pending, 1)
		assert.Equal(t, "meow", snapshot.Pending[0].Tag)
		require.Len(t, snapshot.Pending[0].Listeners, 1)
		assert.Equal(t, uint8(3), snapshot.Pending[0].Listeners[0].Priority)
		assert.Equal(t, "no_arg", snapshot.Pending[0].Listeners[0].Shape)
		assert.Equal(t, []string{"purr"}, snapshot.Done)
	})

	t.Run("single tag", func(t *testing.T) {
		var view tagView
		getJson(t, server.URL+"/events/purr", http.StatusOK, &view)

		assert.Equal(t, "purr", view.Tag)
		assert.True(t, view.Done)
		assert.Empty(t, view.Listeners)
	})

	t.Run("unknown tag is not an error", func(t *testing.T) {
		var view tagView
		getJson(t, server.URL+"/events/unknown", http.StatusOK, &view)

		assert.Equal(t, "unknown", view.Tag)
		assert.False(t, view.Done)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "gevents_registrations_total")
		assert.Contains(t, string(body), "gevents_triggers_total")
	})

	t.Run("not found", func(t *testing.T) {
		var body map[string]string
		getJson(t, server.URL+"/nothing/here", http.StatusNotFound, &body)

		assert.Equal(t, "Not Found", body["error"])
	})

	assert.False(t, registry.IsDone("meow"), "inspection must not trigger tags")
}

func TestKernel_NotFoundIsSharedByKernels(t *testing.T) {
	for _, kernel := range []*Kernel{
		newTestKernel(t, "logging:\n  level: error\n"),
		newTestKernel(t, "logging:\n  level: error\n"),
	} {
		recorder := httptest.NewRecorder()
		kernel.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/nothing/here", nil))

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"error":"Not Found"}`, recorder.Body.String())
	}
}

func TestKernel_ServeListenerShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	kernel := newTestKernel(t, "logging:\n  level: error\nshutdown_timeout: 1000\n")
	netListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- kernel.ServeListener(ctx, netListener)
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, getError := client.Get("http://" + netListener.Addr().String() + "/healthz")
		if nil != getError {
			return false
		}
		resp.Body.Close()
		return http.StatusOK == resp.StatusCode
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case serveError := <-served:
		assert.NoError(t, serveError)
	case <-time.After(2 * time.Second):
		t.Fatal("inspection server did not stop")
	}
}

func TestKernel_ServeListenerRejectsInvalidRequestTimeout(t *testing.T) {
	kernel := newTestKernel(t, "logging:\n  level: error\ninspect:\n  request_timeout: soon\n")
	netListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer netListener.Close()

	serveError := kernel.ServeListener(context.Background(), netListener)
	assertConfigError(t, serveError)
}

func TestKernel_ConfigDirectoryIsMerged(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"main.yaml":      "logging:\n  level: error\nservices:\n  human:\n    arguments: []\n",
		"listeners.json": `{"event_listeners": [{"event": "meow", "listener": "human:PetCat", "priority": 1}]}`,
		"README.md":      "not a config file",
	})

	kernel, err := NewKernel(filepath.Join(dir, "main.yaml"))
	require.NoError(t, err)
	require.NoError(t, kernel.RegisterService("human", newHuman, true))
	require.NoError(t, kernel.LoadListeners())

	infos := kernel.GetRegistry().Listeners("meow")
	require.Len(t, infos, 1)
	assert.Equal(t, uint8(1), infos[0].Priority)
}

func getJson(t *testing.T, url string, expectedStatus int, target interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, expectedStatus, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func assertConfigError(t *testing.T, err error) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, kernelError.CodeConfigInvalid, oopsErr.Code())
}
