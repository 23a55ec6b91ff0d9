// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibreconmetrics records parse and reconciliation outcomes as
// Prometheus metrics and writes them in the node_exporter textfile format.
package ibreconmetrics

import (
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconmerge"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xos"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ibrecon"

// Metrics holds the metrics of a single command invocation.
type Metrics struct {
	registry      *prometheus.Registry
	statements    *prometheus.CounterVec
	trades        prometheus.Counter
	warnings      prometheus.Counter
	sourceRecords *prometheus.GaugeVec
	reconciled    prometheus.Gauge
	discrepancies *prometheus.GaugeVec
}

// New returns a new Metrics backed by its own registry.
func New() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statements_total",
				Help:      "Activity Statements processed, by parse result.",
			},
			[]string{"result"},
		),
		trades: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Trades after deduplication across statements.",
			},
		),
		warnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statement_warnings_total",
				Help:      "Row-level warnings reported while parsing statements.",
			},
		),
		sourceRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_records",
				Help:      "P&L records per reconciliation source.",
			},
			[]string{"source"},
		),
		reconciled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reconciled_records",
				Help:      "Keys whose P&L agrees within tolerance.",
			},
		),
		discrepancies: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "discrepancies",
				Help:      "Reconciliation discrepancies, by type.",
			},
			[]string{"type"},
		),
	}
	metrics.registry.MustRegister(
		metrics.statements,
		metrics.trades,
		metrics.warnings,
		metrics.sourceRecords,
		metrics.reconciled,
		metrics.discrepancies,
	)
	return metrics
}

// ObserveMergedData records the statement, trade, and warning counts of a merge.
func (m *Metrics) ObserveMergedData(mergedData *ibreconmerge.MergedData) {
	for _, statement := range mergedData.Statements {
		m.warnings.Add(float64(len(statement.Result.Warnings)))
		if statement.Result.Success {
			m.statements.WithLabelValues("parsed").Inc()
		} else {
			m.statements.WithLabelValues("failed").Inc()
		}
	}
	m.trades.Add(float64(len(mergedData.Trades)))
}

// ObserveResult records the counts of a reconciliation.
func (m *Metrics) ObserveResult(result *pnlrecon.Result) {
	summary := result.Summary
	m.sourceRecords.WithLabelValues("a").Set(float64(summary.TotalSourceA))
	m.sourceRecords.WithLabelValues("b").Set(float64(summary.TotalSourceB))
	m.reconciled.Set(float64(summary.CountReconciled))
	m.discrepancies.WithLabelValues(string(pnlrecon.DiscrepancyTypePnLMismatch)).Set(float64(summary.CountPnLMismatch))
	m.discrepancies.WithLabelValues(string(pnlrecon.DiscrepancyTypeMissingSourceA)).Set(float64(summary.CountMissingSourceA))
	m.discrepancies.WithLabelValues(string(pnlrecon.DiscrepancyTypeMissingSourceB)).Set(float64(summary.CountMissingSourceB))
}

// Gatherer returns the registry for inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to filePath, creating its directory if needed.
//
// The file is written atomically so a concurrent node_exporter scrape never
// sees a partial file.
func (m *Metrics) WriteTextfile(filePath string) error {
	if err := xos.MkdirAllForFile(filePath); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(filePath, m.registry)
}
