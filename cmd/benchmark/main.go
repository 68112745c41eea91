// Measures fan-out latency of the live containers: how long a write takes
// to reach every subscriber, across subscriber counts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/delaneyj/hostparty/live"
	"github.com/delaneyj/hostparty/stream"
)

var (
	ww    = []int{1, 10, 100, 1_000}
	iters = 100
)

func main() {
	flag.Parse()

	f, err := os.Create("default.pgo")
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	log.Printf("warming up")

	benchmarkCell(true)
	benchmarkTable(true)
}

// subscriberPool pulls a stream in w goroutines and reports every observed
// value on receipts.
func subscriberPool[T any](ctx context.Context, w int, subscribe func() stream.Stream[T], receipts chan<- struct{}) []stream.Stream[T] {
	subs := make([]stream.Stream[T], w)
	for i := 0; i < w; i++ {
		sub := subscribe()
		subs[i] = sub
		go func() {
			for {
				if _, err := sub.Next(ctx); err != nil {
					return
				}
				receipts <- struct{}{}
			}
		}()
	}
	return subs
}

func benchmarkCell(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Cell fan-out")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		ctx, cancel := context.WithCancel(context.Background())
		cell := live.NewCell(0)
		receipts := make(chan struct{}, w)
		subs := subscriberPool(ctx, w, cell.Subscribe, receipts)

		// Drain the initial-value pulls before timing.
		for i := 0; i < w; i++ {
			<-receipts
		}

		for i := 1; i <= iters; i++ {
			start := time.Now()
			cell.Set(i)
			for j := 0; j < w; j++ {
				<-receipts
			}
			tach.AddTime(time.Since(start))
		}
		cancel()
		for _, sub := range subs {
			sub.Stop()
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("set + wake: %d subscribers", w),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkTable(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Table fan-out")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		ctx, cancel := context.WithCancel(context.Background())
		data := live.NewTable[int]()
		data.Set("hot", 0)
		receipts := make(chan struct{}, w)
		subs := subscriberPool(ctx, w, data.SubscribeTable, receipts)

		for i := 0; i < w; i++ {
			<-receipts
		}

		for i := 1; i <= iters; i++ {
			start := time.Now()
			data.Set("hot", i)
			for j := 0; j < w; j++ {
				<-receipts
			}
			tach.AddTime(time.Since(start))
		}
		cancel()
		for _, sub := range subs {
			sub.Stop()
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("write + wake: %d subscribers", w),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	if shouldRender {
		tbl.Render()
	}
}
