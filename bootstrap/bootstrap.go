package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/api"
	"github.com/fulldump/recordkv/configuration"
	"github.com/fulldump/recordkv/database"
	"github.com/fulldump/recordkv/metrics"
	"github.com/fulldump/recordkv/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	logger := logrus.NewEntry(logrus.StandardLogger())
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logger.WithError(err).Warn("bad log level, using info")
	}

	dbConfig := &database.Config{
		Backend:       c.Backend,
		Dir:           c.Dir,
		Schema:        c.Schema,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		Logger:        logger.WithField("component", "database"),
	}

	var metricsHandler http.Handler
	if c.Metrics {
		collector := metrics.New()
		err := collector.Register(prometheus.DefaultRegisterer)
		if err != nil {
			logger.WithError(err).Fatal("register metrics")
		}
		dbConfig.Metrics = collector
		metricsHandler = promhttp.Handler()
	}

	db := database.NewDatabase(dbConfig)

	b := api.Build(service.NewService(db), VERSION, c.ApiKey, c.ApiSecret, metricsHandler)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(logger.WithField("component", "access")),
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic(logger),
		api.PrettyErrorInterceptor,
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		logger.WithError(err).Fatal("listen")
	}
	logger.WithField("addr", c.HttpAddr).Info("listening")

	once := &sync.Once{}
	stop = func() {
		once.Do(func() {
			db.Stop()
			s.Shutdown(context.Background())
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			logger.WithField("signal", sig.String()).Info("signal received")
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				logger.WithError(err).Error("database")
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("http server")
			}
		}()

		wg.Wait()
	}

	return
}
