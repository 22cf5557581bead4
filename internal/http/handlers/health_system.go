package handlers

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/shirou/gopsutil/v4/cpu"
)

const mebibyte = 1 << 20

// cpuInfo reports logical cores and load averages. Fields the host cannot
// supply stay zero.
func cpuInfo(ctx context.Context) CPUInfo {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores == 0 {
		cores = runtime.NumCPU()
	}
	info := CPUInfo{Cores: cores}

	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		info.Load1Min, info.Load5Min, info.Load15Min = avg.Load1, avg.Load5, avg.Load15
		info.LoadPercentage1Min = avg.Load1 / float64(cores) * 100
	}
	return info
}

// memoryInfo reports host memory and this process's resident set.
func memoryInfo(ctx context.Context) MemoryInfo {
	info := MemoryInfo{Goroutines: runtime.NumGoroutine()}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		info.TotalMemoryMB = float64(vm.Total) / mebibyte
		info.UsedMemoryMB = float64(vm.Used) / mebibyte
		info.AvailableMemoryMB = float64(vm.Available) / mebibyte
	}

	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) //nolint:gosec // pids fit in int32
	if err != nil {
		return info
	}
	if rss, err := self.MemoryInfoWithContext(ctx); err == nil && rss != nil {
		info.ProcessMemoryMB = float64(rss.RSS) / mebibyte
	}
	return info
}
