package singleton

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_PortAvailable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	result, err := Acquire(addr)
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()
}

func TestAcquire_HealthyInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == HealthPath {
			_ = json.NewEncoder(w).Encode(HealthStatus{Status: "ok", Service: ServiceName})
		}
	}))
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	result, err := Acquire(addr)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, result)
}

func TestAcquire_UnhealthyInstance(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	result, err := Acquire(listener.Addr().String())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestIsAddrInUse(t *testing.T) {
	l1, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, inUse := net.Listen("tcp", l1.Addr().String())
	l1.Close()

	_, invalid := net.Listen("tcp", "invalid")

	assert.True(t, isAddrInUse(inUse))
	assert.False(t, isAddrInUse(invalid))
	assert.False(t, isAddrInUse(nil))
}

func TestIsInstanceRunning(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "本服务实例",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(HealthStatus{Status: "ok", Service: ServiceName})
			},
			want: true,
		},
		{
			name: "其他服务",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(HealthStatus{Status: "ok", Service: "other"})
			},
			want: false,
		},
		{
			name: "非200状态码",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			assert.Equal(t, tt.want, isInstanceRunning(strings.TrimPrefix(server.URL, "http://")))
		})
	}

	assert.False(t, isInstanceRunning("not-an-address"))
}
