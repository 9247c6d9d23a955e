package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fulldump/recordkv/store/memstore"
)

func TestRemove(c Config) {

	createServer := c.Base == ""

	var stop func()
	var dataDir string
	if createServer {
		_, stop, dataDir = CreateServer(&c)
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
			err := Do(client, "DELETE", url+ids[i], nil, nil)
			if err != nil {
				fmt.Println("ERROR: remove:", err.Error())
			}
		}
	})

	Report("removed", c.N, time.Since(t0))

	if !createServer {
		return
	}

	stop()

	// the journal keeps every write and delete, replay it
	t1 := time.Now()
	s, err := memstore.Open(filepath.Join(dataDir, strings.ToLower(typeName)+".journal"))
	if err != nil {
		fmt.Println("ERROR: open journal:", err.Error())
		return
	}
	defer s.Close()
	tookOpen := time.Since(t1)

	left, err := s.LLen(context.Background(), "view:"+strings.ToLower(typeName)+":all")
	if err != nil {
		fmt.Println("ERROR: read view:", err.Error())
	}
	fmt.Println("left in view:", left)
	fmt.Println("open took:", tookOpen)
	fmt.Printf("Throughput Open: %.2f rows/sec\n", float64(c.N)/tookOpen.Seconds())
}
