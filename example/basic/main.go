package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/danielvallecillo77/DBFlow/pkg/dbflow"
)

// Buffers a handful of models against a callback executor and lets the
// size threshold and a final Close do the flushing.
func main() {
	printer := dbflow.NewCallbackExecutor("stdout", func(batch []*dbflow.Model) error {
		fmt.Printf("--- batch of %d ---\n", len(batch))
		for _, m := range batch {
			fmt.Printf("%s kind=%s rev=%d fields=%v\n", m.Key, m.Kind, m.Revision, m.Fields)
		}
		return nil
	})

	q := dbflow.New(printer,
		dbflow.WithPolicy[*dbflow.Model](dbflow.Policy{
			MaxBatchSize:  3,
			FlushInterval: 5 * time.Second,
		}),
		dbflow.WithSuccessListener[*dbflow.Model](func(res *dbflow.BatchResult[*dbflow.Model]) {
			fmt.Printf("committed batch #%d (%d items in %s)\n", res.Seq, len(res.Items), res.Duration)
		}),
	)
	q.Start()

	for i := 0; i < 7; i++ {
		q.Add(&dbflow.Model{
			Key:       fmt.Sprintf("sensor-%d", i),
			Kind:      "sensor",
			Fields:    map[string]any{"reading": float64(i) * 1.5},
			UpdatedAt: time.Now().UTC(),
			Revision:  1,
		})
		time.Sleep(100 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		log.Fatalf("close: %v", err)
	}
}
