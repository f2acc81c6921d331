package templatebuilder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/reqtemplate"
	"github.com/go-kit/feign/templatebuilder"
)

func TestBuildPlainBindsURIVariables(t *testing.T) {
	m := metadata.New("GitHub#contributors(String,String)")
	m.HTTPMethod = "GET"
	m.URITemplate = "/repos/{owner}/{repo}/contributors"
	m.IndexToName[0] = []string{"owner"}
	m.IndexToName[1] = []string{"repo"}

	tpl, err := reqtemplate.NewFromRequestLine(m.HTTPMethod, m.URITemplate, m.CollectionFormat)
	require.NoError(t, err)
	require.NoError(t, tpl.SetTarget("https://api.github.com"))

	b := templatebuilder.New(m, tpl, nil, nil)
	resolved, err := b.Build([]interface{}{"netflix", "feign"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/repos/netflix/feign/contributors", resolved.URL)
}

func TestBuildMergesQueryMapAfterResolution(t *testing.T) {
	m := metadata.New("Svc#search(Map)")
	m.HTTPMethod = "GET"
	m.URITemplate = "/search?tag=default"
	m.QueryMapIndex = 0

	tpl, err := reqtemplate.NewFromRequestLine(m.HTTPMethod, m.URITemplate, m.CollectionFormat)
	require.NoError(t, err)

	b := templatebuilder.New(m, tpl, nil, nil)
	resolved, err := b.Build([]interface{}{map[string]string{"q": "golang"}})
	require.NoError(t, err)
	assert.Equal(t, "/search?tag=default&q=golang", resolved.URL)
}

func TestBuildMergesHeaderMap(t *testing.T) {
	m := metadata.New("Svc#op(Map)")
	m.HTTPMethod = "GET"
	m.URITemplate = "/x"
	m.HeaderMapIndex = 0

	tpl, err := reqtemplate.NewFromRequestLine(m.HTTPMethod, m.URITemplate, m.CollectionFormat)
	require.NoError(t, err)

	b := templatebuilder.New(m, tpl, nil, nil)
	resolved, err := b.Build([]interface{}{map[string]string{"X-Trace": "abc"}})
	require.NoError(t, err)
	assert.Equal(t, "abc", resolved.Headers.Get("X-Trace"))
}

func TestBuildFormEncodesUnboundNamedParams(t *testing.T) {
	m := metadata.New("Svc#create(String)")
	m.HTTPMethod = "POST"
	m.URITemplate = "/things"
	m.IndexToName[0] = []string{"name"}
	m.FormParams = []string{"name"}

	tpl, err := reqtemplate.NewFromRequestLine(m.HTTPMethod, m.URITemplate, m.CollectionFormat)
	require.NoError(t, err)

	b := templatebuilder.New(m, tpl, nil, nil)
	resolved, err := b.Build([]interface{}{"widget"})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", resolved.Headers.Get("Content-Type"))
	assert.Equal(t, "name=widget", string(resolved.Body))
}
