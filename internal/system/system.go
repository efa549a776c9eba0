// Package system raccoglie informazioni sull'host che ospita l'agente.
package system

import (
	"os"
	"runtime"
	"time"
)

var startedAt = time.Now()

// Snapshot è una fotografia dello stato del processo e dell'host
type Snapshot struct {
	Hostname     string        `json:"hostname"`
	OS           string        `json:"os"`
	Arch         string        `json:"arch"`
	GoVersion    string        `json:"go_version"`
	NumCPU       int           `json:"num_cpu"`
	NumGoroutine int           `json:"num_goroutine"`
	AllocBytes   uint64        `json:"alloc_bytes"`
	SysBytes     uint64        `json:"sys_bytes"`
	NumGC        uint32        `json:"num_gc"`
	PID          int           `json:"pid"`
	Uptime       time.Duration `json:"uptime"`
}

// Collect raccoglie uno snapshot corrente
func Collect() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	hostname, _ := os.Hostname()

	return Snapshot{
		Hostname:     hostname,
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		AllocBytes:   mem.Alloc,
		SysBytes:     mem.Sys,
		NumGC:        mem.NumGC,
		PID:          os.Getpid(),
		Uptime:       time.Since(startedAt).Round(time.Second),
	}
}
