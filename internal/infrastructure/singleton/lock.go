// Package singleton 用固定端口保证同一数据目录只运行一个服务实例
package singleton

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

const (
	// ServiceName 健康检查响应中的服务名
	ServiceName = "docmind"
	// HealthPath 健康检查路径
	HealthPath = "/health"
	// HealthCheckTimeout 健康检查超时时间
	HealthCheckTimeout = 2 * time.Second
)

// ErrAlreadyRunning 已有健康的实例占用端口，调用方应直接退出
var ErrAlreadyRunning = errors.New("another instance is already running")

// HealthStatus 健康检查响应体
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Acquire 占用端口作为实例锁
// 端口被健康实例占用时返回 ErrAlreadyRunning；被其他程序占用时返回错误
func Acquire(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err == nil {
		return listener, nil
	}

	if !isAddrInUse(err) {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if isInstanceRunning(addr) {
		return nil, ErrAlreadyRunning
	}
	return nil, fmt.Errorf("address %s is in use but health check failed", addr)
}

// isAddrInUse 检查错误是否是地址已在使用
func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// Windows: WSAEADDRINUSE (10048)
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == 10048 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "address already in use") ||
		strings.Contains(msg, "Only one usage of each socket address")
}

// isInstanceRunning 本机端口上是否是本服务的健康实例
func isInstanceRunning(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: HealthCheckTimeout}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s%s", port, HealthPath))
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Service == ServiceName
}
