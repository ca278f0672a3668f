package middleware

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"
)

// RPCLogging logs every unary call with its procedure, result code and
// latency. Failures log at warn.
func RPCLogging(log logrus.FieldLogger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			entry := log.WithFields(logrus.Fields{
				"procedure": req.Spec().Procedure,
				"code":      "ok",
				"elapsed":   time.Since(start).String(),
			})
			if err != nil {
				entry = entry.WithField("code", connect.CodeOf(err).String()).WithError(err)
				if connect.CodeOf(err) == connect.CodeInternal {
					entry.Error("rpc failed")
				} else {
					entry.Warn("rpc failed")
				}
				return res, err
			}
			entry.Info("rpc")
			return res, nil
		}
	}
}
