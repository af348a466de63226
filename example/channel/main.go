package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/danielvallecillo77/DBFlow/pkg/dbflow"
)

// Drains batches through a channel so a separate consumer goroutine owns
// the persistence step.
func main() {
	exec, batches, closeExec := dbflow.NewChannelExecutor[*dbflow.Model]("drain", 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for batch := range batches {
			fmt.Printf("consumer received %d models\n", len(batch))
			for _, m := range batch {
				fmt.Printf("  %s -> %v\n", m.Key, m.Fields)
			}
		}
	}()

	q := dbflow.New(exec,
		dbflow.WithPolicy[*dbflow.Model](dbflow.Policy{
			MaxBatchSize:  4,
			FlushInterval: time.Second,
		}),
	)
	q.Start()

	for i := 0; i < 10; i++ {
		q.Add(&dbflow.Model{
			Key:       fmt.Sprintf("doc-%d", i),
			Kind:      "document",
			Fields:    map[string]any{"page": i},
			UpdatedAt: time.Now().UTC(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		log.Fatalf("close: %v", err)
	}

	closeExec()
	<-done
}
