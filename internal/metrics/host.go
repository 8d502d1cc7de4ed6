package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const gatherTimeout = 5 * time.Second

// probe is one independently gathered host reading. A failing probe only
// costs its own metrics; the rest of the scrape proceeds.
type probe struct {
	name    string
	collect func(ctx context.Context, ch chan<- prometheus.Metric) error
}

// HostCollector gathers host resource readings fresh on every scrape. Each
// probe runs in its own goroutine; failures are logged and the probe's
// metrics are simply absent from the exposition.
type HostCollector struct {
	logger *zap.Logger
	probes []probe

	cpuDesc          *prometheus.Desc
	memDesc          *prometheus.Desc
	memAvailDesc     *prometheus.Desc
	memTotalDesc     *prometheus.Desc
	memUsedDesc      *prometheus.Desc
	diskUsageDesc    *prometheus.Desc
	diskFreeDesc     *prometheus.Desc
	diskTotalDesc    *prometheus.Desc
	netBytesSentDesc *prometheus.Desc
	netBytesRecvDesc *prometheus.Desc
	netPktsSentDesc  *prometheus.Desc
	netPktsRecvDesc  *prometheus.Desc
	procCountDesc    *prometheus.Desc
	threadCountDesc  *prometheus.Desc
	bootTimeDesc     *prometheus.Desc
}

// NewHostCollector wires the standard gopsutil probes.
func NewHostCollector(logger *zap.Logger) *HostCollector {
	c := &HostCollector{
		logger:           logger,
		cpuDesc:          prometheus.NewDesc("system_cpu_percent", "System CPU usage percent", nil, nil),
		memDesc:          prometheus.NewDesc("system_memory_percent", "System memory usage percent", nil, nil),
		memAvailDesc:     prometheus.NewDesc("system_memory_available_bytes", "Available memory in bytes", nil, nil),
		memTotalDesc:     prometheus.NewDesc("system_memory_total_bytes", "Total memory in bytes", nil, nil),
		memUsedDesc:      prometheus.NewDesc("system_memory_used_bytes", "Used memory in bytes", nil, nil),
		diskUsageDesc:    prometheus.NewDesc("system_disk_usage_percent", "Disk usage percent", []string{"device", "mountpoint"}, nil),
		diskFreeDesc:     prometheus.NewDesc("system_disk_free_bytes", "Free disk space in bytes", []string{"device", "mountpoint"}, nil),
		diskTotalDesc:    prometheus.NewDesc("system_disk_total_bytes", "Total disk space in bytes", []string{"device", "mountpoint"}, nil),
		netBytesSentDesc: prometheus.NewDesc("system_network_bytes_sent", "Network bytes sent", []string{"interface"}, nil),
		netBytesRecvDesc: prometheus.NewDesc("system_network_bytes_recv", "Network bytes received", []string{"interface"}, nil),
		netPktsSentDesc:  prometheus.NewDesc("system_network_packets_sent", "Network packets sent", []string{"interface"}, nil),
		netPktsRecvDesc:  prometheus.NewDesc("system_network_packets_recv", "Network packets received", []string{"interface"}, nil),
		procCountDesc:    prometheus.NewDesc("system_process_count", "Number of processes", nil, nil),
		threadCountDesc:  prometheus.NewDesc("system_thread_count", "Number of threads", nil, nil),
		bootTimeDesc:     prometheus.NewDesc("system_boot_time_seconds", "System boot time in seconds", nil, nil),
	}
	c.probes = []probe{
		{name: "cpu", collect: c.collectCPU},
		{name: "memory", collect: c.collectMemory},
		{name: "disk", collect: c.collectDisk},
		{name: "network", collect: c.collectNetwork},
		{name: "processes", collect: c.collectProcesses},
		{name: "boot_time", collect: c.collectBootTime},
	}
	return c
}

func (c *HostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuDesc
	ch <- c.memDesc
	ch <- c.memAvailDesc
	ch <- c.memTotalDesc
	ch <- c.memUsedDesc
	ch <- c.diskUsageDesc
	ch <- c.diskFreeDesc
	ch <- c.diskTotalDesc
	ch <- c.netBytesSentDesc
	ch <- c.netBytesRecvDesc
	ch <- c.netPktsSentDesc
	ch <- c.netPktsRecvDesc
	ch <- c.procCountDesc
	ch <- c.threadCountDesc
	ch <- c.bootTimeDesc
}

func (c *HostCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), gatherTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, p := range c.probes {
		wg.Add(1)
		go func(p probe) {
			defer wg.Done()
			if err := p.collect(ctx, ch); err != nil {
				c.logger.Warn("metric gather failure",
					zap.String("probe", p.name),
					zap.Error(err))
			}
		}(p)
	}
	wg.Wait()
}

func (c *HostCollector) collectCPU(ctx context.Context, ch chan<- prometheus.Metric) error {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return err
	}
	var pct float64
	if len(percentages) > 0 {
		pct = percentages[0]
	}
	ch <- prometheus.MustNewConstMetric(c.cpuDesc, prometheus.GaugeValue, pct)
	return nil
}

func (c *HostCollector) collectMemory(ctx context.Context, ch chan<- prometheus.Metric) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}
	ch <- prometheus.MustNewConstMetric(c.memDesc, prometheus.GaugeValue, vm.UsedPercent)
	ch <- prometheus.MustNewConstMetric(c.memAvailDesc, prometheus.GaugeValue, float64(vm.Available))
	ch <- prometheus.MustNewConstMetric(c.memTotalDesc, prometheus.GaugeValue, float64(vm.Total))
	ch <- prometheus.MustNewConstMetric(c.memUsedDesc, prometheus.GaugeValue, float64(vm.Used))
	return nil
}

func (c *HostCollector) collectDisk(ctx context.Context, ch chan<- prometheus.Metric) error {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return err
	}
	for _, part := range partitions {
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			// Pseudo filesystems and permission walls are routine; skip the
			// partition rather than failing the probe.
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.diskUsageDesc, prometheus.GaugeValue, usage.UsedPercent, part.Device, part.Mountpoint)
		ch <- prometheus.MustNewConstMetric(c.diskFreeDesc, prometheus.GaugeValue, float64(usage.Free), part.Device, part.Mountpoint)
		ch <- prometheus.MustNewConstMetric(c.diskTotalDesc, prometheus.GaugeValue, float64(usage.Total), part.Device, part.Mountpoint)
	}
	return nil
}

func (c *HostCollector) collectNetwork(ctx context.Context, ch chan<- prometheus.Metric) error {
	counters, err := gopsnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return err
	}
	for _, ctr := range counters {
		ch <- prometheus.MustNewConstMetric(c.netBytesSentDesc, prometheus.GaugeValue, float64(ctr.BytesSent), ctr.Name)
		ch <- prometheus.MustNewConstMetric(c.netBytesRecvDesc, prometheus.GaugeValue, float64(ctr.BytesRecv), ctr.Name)
		ch <- prometheus.MustNewConstMetric(c.netPktsSentDesc, prometheus.GaugeValue, float64(ctr.PacketsSent), ctr.Name)
		ch <- prometheus.MustNewConstMetric(c.netPktsRecvDesc, prometheus.GaugeValue, float64(ctr.PacketsRecv), ctr.Name)
	}
	return nil
}

func (c *HostCollector) collectProcesses(ctx context.Context, ch chan<- prometheus.Metric) error {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return err
	}
	ch <- prometheus.MustNewConstMetric(c.procCountDesc, prometheus.GaugeValue, float64(len(pids)))

	threads, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return err
	}
	ch <- prometheus.MustNewConstMetric(c.threadCountDesc, prometheus.GaugeValue, float64(threads))
	return nil
}

func (c *HostCollector) collectBootTime(ctx context.Context, ch chan<- prometheus.Metric) error {
	boot, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return err
	}
	ch <- prometheus.MustNewConstMetric(c.bootTimeDesc, prometheus.GaugeValue, float64(boot))
	return nil
}
