package reqtemplate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/reqtemplate"
)

func mustHeader(t *testing.T, values ...string) *reqtemplate.Header {
	t.Helper()
	h, err := reqtemplate.NewHeader(values)
	require.NoError(t, err)
	return h
}

func TestResolveBasicGet(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/repos/{owner}/{repo}/contributors", metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, tpl.SetTarget("https://api.github.com"))

	resolved, err := tpl.Resolve(map[string]interface{}{"owner": "netflix", "repo": "feign"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/repos/netflix/feign/contributors", resolved.URL)

	req, err := resolved.Request(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
}

func TestResolveQueryIterableExploded(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/search", metadata.Exploded)
	require.NoError(t, err)
	q, err := reqtemplate.NewQuery("tag", []string{"{tags}"}, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, tpl.SetQuery(q, "tag"))

	resolved, err := tpl.Resolve(map[string]interface{}{"tags": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "/search?tag=a&tag=b", resolved.URL)
}

func TestResolveQueryIterableCSV(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/search", metadata.CSV)
	require.NoError(t, err)
	q, err := reqtemplate.NewQuery("tag", []string{"{tags}"}, metadata.CSV)
	require.NoError(t, err)
	require.NoError(t, tpl.SetQuery(q, "tag"))

	resolved, err := tpl.Resolve(map[string]interface{}{"tags": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "/search?tag=a,b", resolved.URL)
}

func TestResolveMissingRequiredQueryDropsParam(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/x", metadata.Exploded)
	require.NoError(t, err)
	q1, err := reqtemplate.NewQuery("q", []string{"{q}"}, metadata.Exploded)
	require.NoError(t, err)
	q2, err := reqtemplate.NewQuery("r", []string{"{r}"}, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, tpl.SetQuery(q1, "q"))
	require.NoError(t, tpl.SetQuery(q2, "r"))

	resolved, err := tpl.Resolve(map[string]interface{}{"q": "1"})
	require.NoError(t, err)
	assert.Equal(t, "/x?q=1", resolved.URL)
}

func TestResolveHeaderCaseInsensitive(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/x", metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, tpl.SetHeader("Content-Type", mustHeader(t, "application/json")))

	assert.NotNil(t, tpl.Header("content-type"))
	assert.NotNil(t, tpl.Header("CONTENT-TYPE"))
}

func TestMutationAfterResolveFails(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/x", metadata.Exploded)
	require.NoError(t, err)
	_, err = tpl.Resolve(nil)
	require.NoError(t, err)

	err = tpl.SetTarget("http://example.com")
	assert.ErrorIs(t, err, reqtemplate.ErrResolved)
}

func TestRequestBeforeResolveFails(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/x", metadata.Exploded)
	require.NoError(t, err)
	_, err = tpl.Request(context.Background())
	assert.ErrorIs(t, err, reqtemplate.ErrUnresolved)
}

func TestCloneIsIndependent(t *testing.T) {
	tpl, err := reqtemplate.New("GET", "/x", metadata.Exploded)
	require.NoError(t, err)
	q, err := reqtemplate.NewQuery("a", []string{"{a}"}, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, tpl.SetQuery(q, "a"))

	clone := tpl.Clone()
	require.NoError(t, clone.RemoveQuery("a"))

	resolved, err := tpl.Resolve(map[string]interface{}{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, "/x?a=1", resolved.URL)

	resolvedClone, err := clone.Resolve(map[string]interface{}{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, "/x", resolvedClone.URL)
}
