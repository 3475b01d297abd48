package main

import (
	"fmt"
	"time"

	"wmm/internal/core"
	"wmm/internal/domain"
	"wmm/internal/queue"
)

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// formatBytes renders a byte count in binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// statusColor renders a download status with the conventional color.
func statusColor(s domain.Status) string {
	switch s {
	case domain.StatusComplete:
		return colorGreen(string(s))
	case domain.StatusFailed:
		return colorRed(string(s))
	case domain.StatusPaused, domain.StatusCancelled:
		return colorYellow(string(s))
	default:
		return string(s)
	}
}

// waitForDownload blocks until the download with the given id reaches a
// terminal status, printing progress along the way. Returns the final
// snapshot.
func waitForDownload(service *core.Service, id string) (*domain.Download, error) {
	events, unsubscribe := service.Queue().Subscribe()
	defer unsubscribe()

	// The download may already be terminal by the time we subscribe.
	if d, ok := service.Queue().Get(id); ok && d.Status.Terminal() {
		return d, nil
	}

	lastProgress := -1
	for ev := range events {
		if ev.Download == nil || ev.Download.ID != id {
			continue
		}
		d := ev.Download

		if verbose && d.Status == domain.StatusDownloading && d.Progress != lastProgress {
			fmt.Printf("  %s: %d%% (%s at %s/s)\n",
				d.Name, d.Progress, formatBytes(d.DownloadedBytes), formatBytes(int64(d.SpeedBPS)))
			lastProgress = d.Progress
		}
		if d.Status.Terminal() {
			return d, nil
		}
	}
	return nil, fmt.Errorf("download %s: event stream closed", id)
}

// waitForInstance blocks until the queue reports that all downloads targeting
// the instance have finished and installation has been attempted. The
// instance status is polled as well, in case the completion event fired
// before this call subscribed.
func waitForInstance(service *core.Service, instanceID string, timeout time.Duration) (*queue.InstanceComplete, error) {
	events, unsubscribe := service.Queue().Subscribe()
	defer unsubscribe()

	deadline := time.After(timeout)
	poll := time.NewTicker(time.Second)
	defer poll.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, fmt.Errorf("instance %s: event stream closed", instanceID)
			}
			if ev.Kind == queue.EventInstanceComplete && ev.Instance != nil && ev.Instance.InstanceID == instanceID {
				return ev.Instance, nil
			}
		case <-poll.C:
			inst, err := service.Instances().Get(instanceID)
			if err != nil {
				return nil, err
			}
			if inst.Status != domain.InstanceDownloading {
				return &queue.InstanceComplete{
					InstanceID:   instanceID,
					Succeeded:    inst.Status == domain.InstanceReady,
					CollectionID: inst.CollectionID,
				}, nil
			}
		case <-deadline:
			return nil, fmt.Errorf("instance %s: timed out waiting for installation", instanceID)
		}
	}
}
