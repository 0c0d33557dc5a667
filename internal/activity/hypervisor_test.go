package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/compute/internal/hypervisor"
)

// recordedRequest captures the hypervisor-side view of an activity call.
type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

// newHypervisorStub serves canned responses and records every request.
func newHypervisorStub(t *testing.T, status int, response string) (*hypervisor.Provider, *[]recordedRequest, func()) {
	t.Helper()
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path}
		json.NewDecoder(r.Body).Decode(&rec.body)
		requests = append(requests, rec)

		w.WriteHeader(status)
		w.Write([]byte(response))
	}))

	provider := hypervisor.NewProvider(hypervisor.Settings{
		URL:         srv.URL,
		TokenID:     "test",
		TokenSecret: "secret",
	})
	return provider, &requests, srv.Close
}

func TestHypervisorGetNextVMID(t *testing.T) {
	provider, _, closeFn := newHypervisorStub(t, http.StatusOK, `{"data": 4711}`)
	defer closeFn()

	a := NewHypervisor(provider, false)
	id, err := a.GetNextVMID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4711, id)
}

func TestHypervisorGetNextVMID_FailureWithoutFallback(t *testing.T) {
	provider, _, closeFn := newHypervisorStub(t, http.StatusBadGateway, ``)
	defer closeFn()

	a := NewHypervisor(provider, false)
	_, err := a.GetNextVMID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next vmid")
}

func TestHypervisorGetNextVMID_DemoFallbackRange(t *testing.T) {
	provider, _, closeFn := newHypervisorStub(t, http.StatusBadGateway, ``)
	defer closeFn()

	a := NewHypervisor(provider, true)
	for i := 0; i < 20; i++ {
		id, err := a.GetNextVMID(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, 90000)
		assert.Less(t, id, 99000)
	}
}

func TestHypervisorCloneInstance(t *testing.T) {
	provider, requests, closeFn := newHypervisorStub(t, http.StatusOK, `{"data": "task:clone:1"}`)
	defer closeFn()

	a := NewHypervisor(provider, false)
	task, err := a.CloneInstance(context.Background(), CloneInstanceParams{
		Node:         "node1",
		TemplateVMID: 400,
		NewVMID:      4711,
		Type:         "vm",
		Name:         "web-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "task:clone:1", task)

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, http.MethodPost, got.method)
	// Clone is issued against the template, on the template's node.
	assert.Equal(t, "/nodes/node1/vms/400/clone", got.path)
	assert.Equal(t, float64(4711), got.body["new_vmid"])
}

func TestHypervisorConfigureInstance_JoinsSSHKeys(t *testing.T) {
	provider, requests, closeFn := newHypervisorStub(t, http.StatusOK, `{}`)
	defer closeFn()

	a := NewHypervisor(provider, false)
	err := a.ConfigureInstance(context.Background(), ConfigureInstanceParams{
		Node:          "node1",
		VMID:          4711,
		Type:          "container",
		TenantID:      "tenant-1",
		Cores:         2,
		MemoryMB:      2048,
		RootPassword:  "hunter2",
		SSHPublicKeys: []string{"ssh-ed25519 AAA a@host", "ssh-rsa BBB b@host"},
	})
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/nodes/node1/containers/4711/config", got.path)
	assert.Equal(t, "tenant-1", got.body["tags"])
	// Keys go over the wire newline-joined, one per line.
	assert.Equal(t, "ssh-ed25519 AAA a@host\nssh-rsa BBB b@host", got.body["ssh_public_keys"])
}

func TestHypervisorRemoveInstance(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		vmid     int
		wantPath string
	}{
		{"vm", "vm", 100, "/nodes/node1/vms/100"},
		{"container", "container", 101, "/nodes/node1/containers/101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, requests, closeFn := newHypervisorStub(t, http.StatusOK, `{"data": "task:delete:1"}`)
			defer closeFn()

			a := NewHypervisor(provider, false)
			err := a.RemoveInstance(context.Background(), RemoveInstanceParams{
				Node: "node1",
				VMID: tt.vmid,
				Type: tt.typ,
			})
			require.NoError(t, err)

			require.Len(t, *requests, 1)
			got := (*requests)[0]
			assert.Equal(t, http.MethodDelete, got.method)
			// The node owns the path prefix; the type picks the collection.
			assert.Equal(t, tt.wantPath, got.path)
		})
	}
}

func TestHypervisorRemoveInstance_Error(t *testing.T) {
	provider, _, closeFn := newHypervisorStub(t, http.StatusInternalServerError, ``)
	defer closeFn()

	a := NewHypervisor(provider, false)
	err := a.RemoveInstance(context.Background(), RemoveInstanceParams{Node: "node1", VMID: 100, Type: "vm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove vm 100")
}
