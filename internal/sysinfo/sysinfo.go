// Package sysinfo collects the host details cronalarm reports in its
// status output.
//
// Boot time matters most: @reboot alarms fire once per boot, so the last
// boot is when they last ran.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// SystemInfo contains static system information about the host.
type SystemInfo struct {
	// OS is the operating system name (linux, darwin, windows)
	OS string `json:"os"`

	// Platform is the distribution name (ubuntu, debian, arch)
	Platform string `json:"platform"`

	// PlatformVersion is the distribution version (22.04, 12, etc.)
	PlatformVersion string `json:"platformVersion"`

	// KernelVersion is the kernel version string
	KernelVersion string `json:"kernelVersion"`

	// Hostname is the system hostname
	Hostname string `json:"hostname"`

	// BootTime is when the host last booted.
	BootTime time.Time `json:"bootTime"`
}

// Uptime is how long the host has been up at now.
func (s *SystemInfo) Uptime(now time.Time) time.Duration {
	if s.BootTime.IsZero() {
		return 0
	}
	return now.Sub(s.BootTime)
}

// Collect gathers system information from the host.
func Collect(ctx context.Context) (*SystemInfo, error) {
	info := &SystemInfo{
		OS: runtime.GOOS,
	}

	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect host info: %w", err)
	}
	info.Platform = hostInfo.Platform
	info.PlatformVersion = hostInfo.PlatformVersion
	info.KernelVersion = hostInfo.KernelVersion
	info.Hostname = hostInfo.Hostname
	if hostInfo.BootTime > 0 {
		info.BootTime = time.Unix(int64(hostInfo.BootTime), 0)
	}

	return info, nil
}
