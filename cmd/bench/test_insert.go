package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

func TestInsert(c Config) {

	if c.Base == "" {
		_, stop, _ := CreateServer(&c)
		defer stop()
	}

	client := NewClient()
	typeName := CreateType(client, c.Base)
	url := c.Base + "/v1/types/" + typeName + "/records"

	items := c.N

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(time.Second):
				fmt.Println("items:", atomic.LoadInt64(&items))
			}
		}
	}()

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			n := atomic.AddInt64(&items, -1)
			if n < 0 {
				break
			}
			err := Do(client, "POST", url, JSON{"n": n}, nil)
			if err != nil {
				fmt.Println("ERROR: insert:", err.Error())
			}
		}
	})

	Report("sent", c.N, time.Since(t0))
}
