package services

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MetricSample feeds the admin analytics dashboard.
type MetricSample struct {
	CapturedAt        time.Time `json:"capturedAt" db:"captured_at"`
	ProcessRSSBytes   int64     `json:"processRssBytes" db:"process_rss_bytes"`
	HeapAllocBytes    int64     `json:"heapAllocBytes" db:"heap_alloc_bytes"`
	Goroutines        int       `json:"goroutines" db:"goroutines"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes" db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes" db:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `json:"diskTotalBytes" db:"disk_total_bytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes" db:"disk_used_bytes"`
	ProcessCpuLoad    float64   `json:"processCpuLoad" db:"process_cpu_load"`
	SystemCpuLoad     float64   `json:"systemCpuLoad" db:"system_cpu_load"`
}

// CaptureMetrics samples process and host stats and persists the row for the
// metrics history endpoint.
func CaptureMetrics(db *sqlx.DB, diskPath string) (MetricSample, error) {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	memStat, _ := mem.VirtualMemory()
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, _ = disk.Usage("/")
	}
	processRSS := int64(0)
	processCPU := float64(0)
	if proc != nil {
		if info, _ := proc.MemoryInfo(); info != nil {
			processRSS = int64(info.RSS)
		}
		cpuPerc, _ := proc.CPUPercent()
		processCPU = cpuPerc / 100.0
	}
	sysCPU, _ := cpu.Percent(0, false)
	sysCPUValue := 0.0
	if len(sysCPU) > 0 {
		sysCPUValue = sysCPU[0] / 100.0
	}
	var heap runtime.MemStats
	runtime.ReadMemStats(&heap)

	sample := MetricSample{
		CapturedAt:        time.Now().UTC(),
		ProcessRSSBytes:   processRSS,
		HeapAllocBytes:    int64(heap.HeapAlloc),
		Goroutines:        runtime.NumGoroutine(),
		SystemMemoryTotal: int64(memStat.Total),
		SystemMemoryUsed:  int64(memStat.Total - memStat.Available),
		DiskTotalBytes:    int64(diskStat.Total),
		DiskUsedBytes:     int64(diskStat.Used),
		ProcessCpuLoad:    processCPU,
		SystemCpuLoad:     sysCPUValue,
	}

	_, err = db.Exec(`
INSERT INTO server_metric_samples (
  id, captured_at, process_rss_bytes, heap_alloc_bytes, goroutines,
  system_memory_total_bytes, system_memory_used_bytes,
  disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, uuid.NewString(), sample.CapturedAt, sample.ProcessRSSBytes, sample.HeapAllocBytes, sample.Goroutines,
		sample.SystemMemoryTotal, sample.SystemMemoryUsed,
		sample.DiskTotalBytes, sample.DiskUsedBytes, sample.ProcessCpuLoad, sample.SystemCpuLoad)
	if err != nil {
		return MetricSample{}, err
	}
	return sample, nil
}

// LatestMetrics returns up to limit samples, oldest first.
func LatestMetrics(db *sqlx.DB, limit int) ([]MetricSample, error) {
	rows := []MetricSample{}
	if err := db.Select(&rows, `
SELECT captured_at, process_rss_bytes, heap_alloc_bytes, goroutines,
       system_memory_total_bytes, system_memory_used_bytes,
       disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load
FROM server_metric_samples
ORDER BY captured_at DESC
LIMIT $1
`, limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// MetricsHub fans captured samples out to connected dashboard sockets.
// Sockets register and unregister from handler goroutines, so the client
// set is guarded by a mutex.
type MetricsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan MetricSample
}

func NewMetricsHub() *MetricsHub {
	return &MetricsHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan MetricSample, 16),
	}
}

func (h *MetricsHub) Run(ctx context.Context) {
	for {
		select {
		case sample := <-h.ch:
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.WriteJSON(sample)
			}
			h.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast never blocks; a slow consumer drops samples instead.
func (h *MetricsHub) Broadcast(sample MetricSample) {
	select {
	case h.ch <- sample:
	default:
	}
}

func (h *MetricsHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *MetricsHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}
