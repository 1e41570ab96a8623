// Command chronosctl is a small maintenance tool for a Chronos SQLite
// deployment: inspect entry counts, force a purge cycle, or vacuum the
// database file.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/agilira/chronos"
	"github.com/agilira/chronos/gobcodec"
	"github.com/agilira/chronos/sqlitefactory"
	flashflags "github.com/agilira/flash-flags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "chronosctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flashflags.New("chronosctl", "maintenance tool for a Chronos cache database")
	dbPath := fs.String("db", "chronos.db", "path to the SQLite database file")
	partition := fs.String("partition", "", "partition to scope inspect/purge-now to (empty means all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	command := ""
	if rest := fs.Args(); len(rest) > 0 {
		command = rest[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	factory, err := sqlitefactory.Open(ctx, dbPath.Value())
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath.Value(), err)
	}

	engine, err := chronos.NewEngine(ctx, factory, chronos.DefaultSettings(),
		chronos.WithSerializer(gobcodec.New()))
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer engine.Close()

	switch command {
	case "inspect":
		return inspect(ctx, engine, partition.Value())
	case "purge-now":
		return purgeNow(ctx, engine, partition.Value())
	case "vacuum":
		return vacuum(ctx, factory)
	default:
		return fmt.Errorf("usage: chronosctl [-db path] [-partition name] <inspect|purge-now|vacuum>")
	}
}

func inspect(ctx context.Context, engine *chronos.CacheEngine, partition string) error {
	live, err := engine.LongCount(ctx, partition, chronos.ConsiderExpiryDate)
	if err != nil {
		return fmt.Errorf("count live rows: %w", err)
	}
	all, err := engine.LongCount(ctx, partition, chronos.IgnoreExpiryDate)
	if err != nil {
		return fmt.Errorf("count all rows: %w", err)
	}
	sizeBytes, err := engine.GetCacheSizeInBytes(ctx)
	if err != nil {
		return fmt.Errorf("estimate size: %w", err)
	}

	scope := partition
	if scope == "" {
		scope = "(all partitions)"
	}
	fmt.Printf("partition:      %s\n", scope)
	fmt.Printf("live entries:   %d\n", live)
	fmt.Printf("total entries:  %d (includes expired, unpurged)\n", all)
	fmt.Printf("on-disk size:   %d bytes\n", sizeBytes)
	return nil
}

func purgeNow(ctx context.Context, engine *chronos.CacheEngine, partition string) error {
	deleted, err := engine.Clear(ctx, partition, chronos.ConsiderExpiryDate)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	fmt.Printf("purged %d expired entries\n", deleted)
	return nil
}

func vacuum(ctx context.Context, factory *sqlitefactory.Factory) error {
	db, err := factory.Open(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	fmt.Println("vacuum complete")
	return nil
}
