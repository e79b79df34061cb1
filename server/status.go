// server/status.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/cpu"
)

// Number of most recently stored panels listed on the status page.
const statusRecentPanels = 20

type serverStats struct {
	Uptime           time.Duration
	AllocMemory      uint64
	TotalAllocMemory uint64
	SysMemory        uint64
	NumGC            uint32
	NumGoRoutines    int
	CPUUsage         int

	Panels      []panelEntry
	TotalPanels int
	TotalBytes  int64
}

func (ss serverStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("uptime", ss.Uptime),
		slog.Uint64("alloc_mb", ss.AllocMemory),
		slog.Int("goroutines", ss.NumGoRoutines),
		slog.Int("panels", ss.TotalPanels),
		slog.Int64("bytes", ss.TotalBytes))
}

// mountDebug adds the status page and the pprof handlers.
func (s *Server) mountDebug(router chi.Router) {
	router.Get("/sup", s.statsHandler)

	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.Handle("/debug/pprof/{name}", http.HandlerFunc(pprof.Index))
}

func byteCount(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

var templateFuncs = template.FuncMap{"bytes": byteCount}

var statsTemplate = template.Must(template.New("").Funcs(templateFuncs).Parse(`
<!DOCTYPE html>
<html>
<head>
<title>metproducts status</title>
</head>
<style>
table {
  border-collapse: collapse;
  width: 100%;
}

th, td {
  border: 1px solid #dddddd;
  padding: 8px;
  text-align: left;
}

tr:nth-child(even) {
  background-color: #f2f2f2;
}
</style>
<body>
<h1>Server Status</h1>
<ul>
  <li>Uptime: {{.Uptime}}</li>
  <li>CPU usage: {{.CPUUsage}}%</li>
  <li>Allocated memory: {{.AllocMemory}} MB</li>
  <li>Total allocated memory: {{.TotalAllocMemory}} MB</li>
  <li>System memory: {{.SysMemory}} MB</li>
  <li>Garbage collection passes: {{.NumGC}}</li>
  <li>Running goroutines: {{.NumGoRoutines}}</li>
</ul>

<h1>Products</h1>
<p>{{.TotalPanels}} panels, {{bytes .TotalBytes}}</p>
<table>
  <tr>
  <th>Panel</th>
  <th>Size</th>
  </tr>
{{range .Panels}}
  <tr>
  <td><a href="/panels/{{.Path}}"><tt>{{.Path}}</tt></a></td>
  <td>{{bytes .Size}}</td>
  </tr>
{{end}}
</table>

</body>
</html>
`))

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var cpuUsage int
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		cpuUsage = int(usage[0] + 0.5)
	}

	stats := serverStats{
		Uptime:           time.Since(s.startTime).Round(time.Second),
		AllocMemory:      m.Alloc / (1024 * 1024),
		TotalAllocMemory: m.TotalAlloc / (1024 * 1024),
		SysMemory:        m.Sys / (1024 * 1024),
		NumGC:            m.NumGC,
		NumGoRoutines:    runtime.NumGoroutine(),
		CPUUsage:         cpuUsage,
	}

	objs, err := s.renderer.Backend.List(r.Context(), "")
	if err != nil {
		s.lg.Warnf("status: %v", err)
	}
	for p, sz := range objs {
		if strings.HasSuffix(p, ".png") {
			stats.Panels = append(stats.Panels, panelEntry{Path: p, Size: sz})
			stats.TotalBytes += sz
		}
	}
	stats.TotalPanels = len(stats.Panels)
	// Paths sort by model then init time; show the newest first.
	slices.SortFunc(stats.Panels, func(a, b panelEntry) int { return strings.Compare(b.Path, a.Path) })
	if len(stats.Panels) > statusRecentPanels {
		stats.Panels = stats.Panels[:statusRecentPanels]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statsTemplate.Execute(w, stats); err != nil {
		s.lg.Errorf("status: %v", err)
	}
	s.lg.Info("served stats request", "stats", stats)
}
