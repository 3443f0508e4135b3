// Package util provides logging, counters and small helpers shared by the
// signaling, session and channel packages.
package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide handshake/traffic counter.
var Stats = &stats{}

type stats struct {
	SignalSent     atomic.Int64 // signaling messages written
	SignalRecv     atomic.Int64 // signaling messages read
	CandidatesSent atomic.Int64 // local candidates forwarded to the remote peer
	CandidatesRecv atomic.Int64 // remote candidates handed to the engine
	BytesSent      atomic.Int64 // cumulative bytes written to the DataChannel
	BytesRecv      atomic.Int64 // cumulative bytes read from the DataChannel
}

func (s *stats) AddSignalSent()    { s.SignalSent.Add(1) }
func (s *stats) AddSignalRecv()    { s.SignalRecv.Add(1) }
func (s *stats) AddCandidateSent() { s.CandidatesSent.Add(1) }
func (s *stats) AddCandidateRecv() { s.CandidatesRecv.Add(1) }
func (s *stats) AddSent(n int)     { s.BytesSent.Add(int64(n)) }
func (s *stats) AddRecv(n int)     { s.BytesRecv.Add(int64(n)) }

// Handshake summarizes the signaling counters in one line.
func (s *stats) Handshake() string {
	return fmt.Sprintf("signal %d↑ %d↓ | candidates %d↑ %d↓",
		s.SignalSent.Load(), s.SignalRecv.Load(),
		s.CandidatesSent.Load(), s.CandidatesRecv.Load())
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

const reportInterval = 10 * time.Second

// StartStatsReporter launches a goroutine that logs DataChannel throughput
// every 10 seconds while there is traffic. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()

		var prevSent, prevRecv int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.BytesSent.Load()
				recv := Stats.BytesRecv.Load()

				outS := float64(sent-prevSent) / reportInterval.Seconds()
				inS := float64(recv-prevRecv) / reportInterval.Seconds()

				if inS > 0 || outS > 0 {
					pterm.DefaultLogger.Info(formatStats(inS, outS))
				}

				prevSent = sent
				prevRecv = recv

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < len(byteUnits)-1 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns the throughput line printed by the reporter.
func formatStats(inS, outS float64) string {
	return fmt.Sprintf("In: %s/s | Out: %s/s", formatBytes(inS), formatBytes(outS))
}
