// Package main provides mmqfbench, a concurrent producer/consumer load
// generator for a queue file, reporting throughput and busy-wait pressure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mmqf/mmqf"

	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type config struct {
	path        string
	capacity    uint32
	slotSize    uint32
	producers   int
	consumers   int
	perProducer int
	duration    time.Duration
}

func run(args []string, out, errOut *os.File) error {
	fs := flag.NewFlagSet("mmqfbench", flag.ContinueOnError)

	cfg := config{}
	fs.StringVar(&cfg.path, "path", filepath.Join(os.TempDir(), "mmqfbench.mmqf"), "benchmark queue file `path`")
	fs.Uint32Var(&cfg.capacity, "capacity", 4096, "queue capacity in slots")
	fs.Uint32Var(&cfg.slotSize, "slot-size", 64, "bytes per slot")
	fs.IntVar(&cfg.producers, "producers", 4, "number of concurrent producer goroutines")
	fs.IntVar(&cfg.consumers, "consumers", 4, "number of concurrent consumer goroutines")
	fs.IntVar(&cfg.perProducer, "per-producer", 50000, "elements each producer enqueues")
	fs.DurationVar(&cfg.duration, "timeout", 60*time.Second, "maximum time to wait for producers/consumers to finish")

	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := mmqf.Create(mmqf.Options{
		Path:      cfg.path,
		SchemaID:  1,
		Capacity:  cfg.capacity,
		SlotSize:  cfg.slotSize,
		Overwrite: true,
	})
	if err != nil {
		return fmt.Errorf("creating benchmark queue: %w", err)
	}
	defer q.Close()

	total := cfg.producers * cfg.perProducer

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Prefix = fmt.Sprintf("driving %d producers / %d consumers (%d elements)... ", cfg.producers, cfg.consumers, total)
	s.Start()

	result, err := drive(q, cfg, total)

	s.Stop()

	if err != nil {
		return err
	}

	fmt.Fprintf(out, "produced:        %d\n", result.produced)
	fmt.Fprintf(out, "consumed:        %d\n", result.consumed)
	fmt.Fprintf(out, "elapsed:         %s\n", result.elapsed)
	fmt.Fprintf(out, "enqueue/sec:     %.0f\n", float64(result.produced)/result.elapsed.Seconds())
	fmt.Fprintf(out, "dequeue/sec:     %.0f\n", float64(result.consumed)/result.elapsed.Seconds())
	fmt.Fprintf(out, "busy_iterations: %d\n", q.BusyIterations())

	return nil
}

type benchResult struct {
	produced int64
	consumed int64
	elapsed  time.Duration
}

// drive runs producers and consumers concurrently until total elements
// have been both enqueued and dequeued, or cfg.duration elapses.
func drive(q *mmqf.Queue, cfg config, total int) (benchResult, error) {
	var produced, consumed atomic.Int64

	deadline := time.Now().Add(cfg.duration)

	var wg sync.WaitGroup

	start := time.Now()

	for p := 0; p < cfg.producers; p++ {
		wg.Add(1)

		go func(p int) {
			defer wg.Done()

			slot := make([]byte, cfg.slotSize)

			for i := 0; i < cfg.perProducer; i++ {
				for {
					if err := q.Enqueue(slot); err == nil {
						produced.Add(1)
						break
					}

					if time.Now().After(deadline) {
						return
					}
				}
			}
		}(p)
	}

	for c := 0; c < cfg.consumers; c++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for consumed.Load() < int64(total) {
				if _, err := q.Dequeue(); err == nil {
					consumed.Add(1)
					continue
				}

				if time.Now().After(deadline) {
					return
				}
			}
		}()
	}

	wg.Wait()

	return benchResult{
		produced: produced.Load(),
		consumed: consumed.Load(),
		elapsed:  time.Since(start),
	}, nil
}
