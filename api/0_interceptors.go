package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"
	"github.com/sirupsen/logrus"
)

// RecoverFromPanic turns a panicking handler into a 500 and logs the stack.
func RecoverFromPanic(logger *logrus.Entry) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithField("stack", string(debug.Stack())).Errorf("panic: %v", err)
					box.SetError(ctx, fmt.Errorf("panic: %v", err))
				}
			}()
			next(ctx)
		}
	}
}

func AccessLog(logger *logrus.Entry) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				entry := logger.WithFields(logrus.Fields{
					"remote": formatRemoteAddr(r),
					"method": r.Method,
					"url":    r.URL.String(),
					"took":   time.Since(now).String(),
				})
				if err := box.GetError(ctx); err != nil {
					entry = entry.WithError(err)
				}
				entry.Info("access")
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[0:i]
}
