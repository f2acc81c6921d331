package feign

import (
	"net/url"

	transporthttp "github.com/go-kit/feign/transport/http"
)

// BindStatic registers a hand-written, non-declarative operation under name,
// built from transporthttp.Client instead of the templating pipeline. This
// is the Go analogue of a default/static interface method:
// Build's contract.Parse only ever discovers HTTP operations, so a caller
// whose interface also carries a default method implements it directly and
// wires it in here rather than through a Description.
func (c *Client) BindStatic(name, method string, target *url.URL, enc transporthttp.EncodeRequestFunc, dec transporthttp.DecodeResponseFunc, opts ...transporthttp.ClientOption) {
	httpClient := transporthttp.NewClient(method, target, enc, dec, opts...)
	c.endpoints[name] = httpClient.Endpoint()
}
