package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/danielvallecillo77/DBFlow/pkg/dbflow"
)

// Simulates a flaky backend: the first two transactions fail, the
// requeuer feeds the batch back in after a backoff, and the third
// attempt commits.
func main() {
	var attempts atomic.Int64
	flaky := dbflow.NewCallbackExecutor("flaky", func(batch []*dbflow.Model) error {
		n := attempts.Add(1)
		if n <= 2 {
			fmt.Printf("attempt %d: rejecting %d models\n", n, len(batch))
			return errors.New("backend unavailable")
		}
		fmt.Printf("attempt %d: committed %d models\n", n, len(batch))
		return nil
	})

	q := dbflow.New(flaky,
		dbflow.WithPolicy[*dbflow.Model](dbflow.Policy{
			MaxBatchSize:  2,
			FlushInterval: time.Minute,
		}),
	)
	dbflow.NewRequeuer[*dbflow.Model](q, nil).Install()
	q.Start()

	q.AddAll([]*dbflow.Model{
		{Key: "alpha", Kind: "sensor", UpdatedAt: time.Now().UTC()},
		{Key: "beta", Kind: "sensor", UpdatedAt: time.Now().UTC()},
	})

	// Default backoff starts at 500ms, so two retries fit comfortably.
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		log.Fatalf("close: %v", err)
	}
}
