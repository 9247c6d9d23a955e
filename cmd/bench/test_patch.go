package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TestPatch moves every indexed value, which rewrites both index entries
// of each record.
func TestPatch(c Config) {

	if c.Base == "" {
		_, stop, _ := CreateServer(&c)
		defer stop()
	}

	client := NewClient()
	typeName := CreateType(client, c.Base)

	fmt.Println("Preload records...")
	ids := Preload(c, client, typeName)

	url := c.Base + "/v1/types/" + typeName + "/records/"

	t0 := time.Now()
	next := int64(-1)
	Parallel(c.Workers, func() {
		for {
			i := atomic.AddInt64(&next, 1)
			if i >= int64(len(ids)) {
				break
			}
			err := Do(client, "PATCH", url+ids[i], JSON{
				"set": JSON{"n": c.N + i},
			}, nil)
			if err != nil {
				fmt.Println("ERROR: patch:", err.Error())
			}
		}
	})

	Report("patched", c.N, time.Since(t0))
}
