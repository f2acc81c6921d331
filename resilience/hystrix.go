package resilience

import (
	"context"

	"github.com/afex/hystrix-go/hystrix"

	"github.com/go-kit/feign/endpoint"
)

// Hystrix returns an endpoint.Middleware that implements the circuit
// breaker pattern using the afex/hystrix-go package. commandName should be
// the operation's stable identity (metadata.Method.ConfigKey); callers are
// responsible for configuring the command's thresholds separately via
// hystrix.ConfigureCommand.
//
// See github.com/afex/hystrix-go/hystrix for more information.
func Hystrix(commandName string) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			var resp interface{}
			if err := hystrix.Do(commandName, func() (err error) {
				resp, err = next(ctx, request)
				return err
			}, nil); err != nil {
				return nil, err
			}
			return resp, nil
		}
	}
}
