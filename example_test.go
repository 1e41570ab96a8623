// example_test.go: godoc examples for the Chronos cache engine
//
// These examples appear in the generated documentation on pkg.go.dev
// and are executed as part of the test suite to ensure they remain valid.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package chronos_test

import (
	"context"
	"fmt"
	"time"

	"github.com/agilira/chronos"
	"github.com/agilira/chronos/gobcodec"
	"github.com/agilira/chronos/sqlitefactory"
)

// ExampleNewEngine demonstrates opening an embedded engine and storing a
// timed value.
func ExampleNewEngine() {
	ctx := context.Background()

	factory, err := sqlitefactory.Open(ctx, ":memory:")
	if err != nil {
		fmt.Println("open error:", err)
		return
	}

	engine, err := chronos.NewEngine(ctx, factory, chronos.DefaultSettings(),
		chronos.WithSerializer(gobcodec.New()))
	if err != nil {
		fmt.Println("engine error:", err)
		return
	}
	defer engine.Close()

	type User struct {
		Name  string
		Email string
	}

	err = chronos.Add(ctx, engine, "users", "user:123",
		User{Name: "John Doe", Email: "john@example.com"},
		chronos.Timed(time.Now().Add(time.Hour)), nil)
	if err != nil {
		fmt.Println("add error:", err)
		return
	}

	found, err := engine.Contains(ctx, "users", "user:123")
	if err != nil {
		fmt.Println("contains error:", err)
		return
	}
	fmt.Println("found:", found)

	// Output: found: true
}

// ExampleGet demonstrates a typed read against a stored entry.
func ExampleGet() {
	ctx := context.Background()

	factory, _ := sqlitefactory.Open(ctx, ":memory:")
	engine, _ := chronos.NewEngine(ctx, factory, chronos.DefaultSettings(),
		chronos.WithSerializer(gobcodec.New()))
	defer engine.Close()

	_ = chronos.Add(ctx, engine, "sessions", "token:abc", "active",
		chronos.Sliding(10*time.Minute), nil)

	result, err := chronos.Get[string](ctx, engine, "sessions", "token:abc")
	if err != nil {
		fmt.Println("get error:", err)
		return
	}
	fmt.Printf("present=%v value=%s\n", result.Present, result.Value)

	// Output: present=true value=active
}

// ExampleAdd_parentCascade demonstrates removing a parent entry and having
// its dependents disappear transitively.
func ExampleAdd_parentCascade() {
	ctx := context.Background()

	factory, _ := sqlitefactory.Open(ctx, ":memory:")
	engine, _ := chronos.NewEngine(ctx, factory, chronos.DefaultSettings(),
		chronos.WithSerializer(gobcodec.New()))
	defer engine.Close()

	_ = chronos.Add(ctx, engine, "docs", "root", "R", chronos.Static(), nil)
	_ = chronos.Add(ctx, engine, "docs", "childA", "A", chronos.Static(), []string{"root"})
	_ = chronos.Add(ctx, engine, "docs", "childB", "B", chronos.Static(), []string{"root"})

	if err := engine.Remove(ctx, "docs", "root"); err != nil {
		fmt.Println("remove error:", err)
		return
	}

	count, err := engine.LongCount(ctx, "docs", chronos.IgnoreExpiryDate)
	if err != nil {
		fmt.Println("count error:", err)
		return
	}
	fmt.Println("remaining:", count)

	// Output: remaining: 0
}

// ExampleGetOrAdd demonstrates loading a value once and reusing it on
// subsequent calls.
func ExampleGetOrAdd() {
	ctx := context.Background()

	factory, _ := sqlitefactory.Open(ctx, ":memory:")
	engine, _ := chronos.NewEngine(ctx, factory, chronos.DefaultSettings(),
		chronos.WithSerializer(gobcodec.New()))
	defer engine.Close()

	loads := 0
	loader := func(ctx context.Context) (string, error) {
		loads++
		return "expensive result", nil
	}

	value, err := chronos.GetOrAdd(ctx, engine, "computed", "result",
		chronos.Timed(time.Now().Add(time.Minute)), nil, loader)
	if err != nil {
		fmt.Println("getoradd error:", err)
		return
	}
	fmt.Println("first:", value)

	value, err = chronos.GetOrAdd(ctx, engine, "computed", "result",
		chronos.Timed(time.Now().Add(time.Minute)), nil, loader)
	if err != nil {
		fmt.Println("getoradd error:", err)
		return
	}
	fmt.Printf("second: %s loads: %d\n", value, loads)

	// Output: first: expensive result
	// second: expensive result loads: 1
}
