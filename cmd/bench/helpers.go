package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/recordkv/bootstrap"
	"github.com/fulldump/recordkv/configuration"
)

type JSON = map[string]any

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "recordkv_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     1024,
			MaxIdleConnsPerHost: 1024,
			MaxIdleConns:        1024,
		},
		Timeout: 10 * time.Second,
	}
}

// Do sends payload as JSON and decodes the response into result when it
// is not nil.
func Do(client *http.Client, method, url string, payload, result any) error {

	var body bytes.Buffer
	if payload != nil {
		err := json.MarshalWrite(&body, payload)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if result == nil {
		return nil
	}
	return json.UnmarshalRead(resp.Body, result)
}

// CreateType declares a fresh type with a unique index on "n" and a queue
// view, and returns its name.
func CreateType(client *http.Client, base string) string {

	name := "bench" + strconv.FormatInt(time.Now().UnixNano(), 10)

	err := Do(client, "POST", base+"/v1/types", JSON{
		"name":    name,
		"indices": []string{"n"},
		"views": []JSON{
			{"name": "all", "kind": "queue"},
		},
	}, nil)
	if err != nil {
		panic(err)
	}

	return name
}

// Preload inserts n records and returns their ids.
func Preload(c Config, client *http.Client, typeName string) []string {

	url := c.Base + "/v1/types/" + typeName + "/records"

	ids := make([]string, c.N)
	next := make(chan int64)
	go func() {
		for i := int64(0); i < c.N; i++ {
			next <- i
		}
		close(next)
	}()

	Parallel(c.Workers, func() {
		for i := range next {
			doc := struct {
				Id string `json:"id"`
			}{}
			err := Do(client, "POST", url, JSON{"n": i, "worker": i % int64(c.Workers)}, &doc)
			if err != nil {
				fmt.Println("ERROR: insert:", err.Error())
				continue
			}
			ids[i] = doc.Id
		}
	})

	return ids
}

func CreateServer(c *Config) (start, stop func(), dataDir string) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.Schema = ""
	conf.Metrics = false
	conf.ShowBanner = false
	conf.LogLevel = "warn"
	c.Base = "http://" + conf.HttpAddr

	start, stop = bootstrap.Bootstrap(&conf)
	go start()
	waitReady(c.Base)

	return start, stop, dir
}

func waitReady(base string) {
	client := NewClient()
	for i := 0; i < 100; i++ {
		err := Do(client, "GET", base+"/v1/types", nil, nil)
		if err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	panic("server is not ready")
}

func Report(label string, n int64, took time.Duration) {
	fmt.Println(label+":", n)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(n)/took.Seconds())
}
