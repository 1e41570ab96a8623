// Package chronos provides a persistent, partition-scoped key-value cache
// whose authoritative state lives in a relational database rather than in
// process memory.
//
// # Overview
//
// Chronos addresses entries by (partition, key). Every entry carries one of
// three lifetime policies — timed, sliding, or static — and may depend on up
// to MaxParentKeyColumns parent keys, whose removal transitively removes
// every dependent. Values pass through a pluggable Serializer, an optional
// Compressor gated by a size threshold, and a tamper-evidence hash before
// they reach the database.
//
// # Quick Start
//
//	factory, err := sqlitefactory.Open(ctx, "cache.db")
//	engine, err := chronos.NewEngine(ctx, factory, chronos.DefaultSettings(),
//		chronos.WithSerializer(gobcodec.New()),
//		chronos.WithCompressor(gzipcodec.New()),
//	)
//
//	type Session struct{ UserID int }
//
//	err = chronos.Add(ctx, engine, "sessions", "user:42",
//		Session{UserID: 42}, chronos.Sliding(10*time.Minute), nil)
//
//	result, err := chronos.Get[Session](ctx, engine, "sessions", "user:42")
//	if result.Present {
//		fmt.Println(result.Value.UserID)
//	}
//
// # Parent-key cascade
//
//	chronos.Add(ctx, engine, "docs", "root", rootDoc, chronos.Static(), nil)
//	chronos.Add(ctx, engine, "docs", "child", childDoc, chronos.Static(), []string{"root"})
//	engine.Remove(ctx, "docs", "root") // also removes "child"
//
// # GetOrAdd and cache stampede
//
// GetOrAdd coalesces concurrent misses for the same (partition, key) within
// one engine instance using a singleflight pattern; across engine instances
// sharing a database, the compound is not globally atomic and the second
// Add simply wins the upsert.
//
//	user, err := chronos.GetOrAdd(ctx, engine, "users", "42", chronos.Timed(deadline), nil,
//		func(ctx context.Context) (User, error) {
//			return fetchUserFromDB(ctx, 42)
//		})
//
// # Error handling
//
// Errors fall into six kinds (InvalidArgument, ContractViolation,
// WriteFailure, ReadFailure, Cancelled, Capacity). Get and Peek absorb read
// failures into an absent CacheResult and record them on engine.LastError();
// they never return a read failure as a hard error.
//
// # Settings and hot reload
//
// Settings is a typed, observable configuration surface; SettingsStore
// notifies every subscriber on mutation. HotSettings wraps an Argus watcher
// to drive that mutation from a config file:
//
//	store := chronos.NewSettingsStore(chronos.DefaultSettings())
//	hs, err := chronos.NewHotSettings(store, chronos.HotSettingsOptions{
//		ConfigPath: "chronos.yaml",
//	})
//	hs.Start()
//
// # Metrics
//
// The chronos/otel package implements MetricsCollector with OpenTelemetry
// histograms and counters, mirroring the core package's zero-dependency
// default (NoOpMetricsCollector).
//
// # Dialects
//
// chronos/sqlitefactory, chronos/pqfactory, and chronos/myfactory each
// implement ConnectionFactory for SQLite, PostgreSQL, and MySQL
// respectively; NewEngine accepts any of them interchangeably.
//
// # Distributed-cache adapter
//
// The chronos/distributed package maps a flat key namespace onto a reserved
// partition for integration with distributed-cache style consumers that
// only need Get/Set/Refresh/Remove.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package chronos
