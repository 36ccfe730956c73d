package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// monitorLoop repeats the auto-select cycle until SIGINT/SIGTERM. Cancellation
// is cooperative: a cycle that has started runs to completion, and the signal
// is only consulted between cycles and during the interval wait. A cycle
// error costs that cycle only; the next tick is the retry.
func monitorLoop(client *http.Client, cfg Config, jsonOutput, dryRun bool) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logrus.Infof("monitor started: group=%s interval=%ds", cfg.ProxyGroup, cfg.MonitorIntervalS)

	for {
		select {
		case <-sigCh:
			logrus.Info("shutdown signal received")
			return
		default:
		}

		if err := autoSelectOnce(client, cfg, jsonOutput, dryRun); err != nil {
			logrus.Warnf("auto select cycle failed: %v", err)
		}

		timer := time.NewTimer(time.Duration(cfg.MonitorIntervalS) * time.Second)
		select {
		case <-sigCh:
			timer.Stop()
			logrus.Info("shutdown signal received")
			return
		case <-timer.C:
		}
	}
}
