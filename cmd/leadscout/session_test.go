package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookieExport(t *testing.T) {
	t.Run("bare cookie array", func(t *testing.T) {
		data := []byte(`[
			{"name": "li_at", "value": "secret", "domain": ".linkedin.com", "path": "/", "httpOnly": true, "secure": true},
			{"name": "JSESSIONID", "value": "ajax:123", "domain": ".www.linkedin.com"}
		]`)
		cookies, err := parseCookieExport(data)
		require.NoError(t, err)
		require.Len(t, cookies, 2)
		assert.Equal(t, "li_at", cookies[0].Name)
		assert.True(t, cookies[0].HTTPOnly)
	})

	t.Run("saved bundle", func(t *testing.T) {
		data := []byte(`{
			"cookies": [{"name": "li_at", "value": "secret"}],
			"saved_at": "2026-08-01T12:00:00Z",
			"metadata": {"source": "import"}
		}`)
		cookies, err := parseCookieExport(data)
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		assert.Equal(t, "li_at", cookies[0].Name)
	})

	t.Run("rejects other JSON", func(t *testing.T) {
		_, err := parseCookieExport([]byte(`{"hello": "world"}`))
		assert.Error(t, err)
	})

	t.Run("rejects non-JSON", func(t *testing.T) {
		_, err := parseCookieExport([]byte(`csv,export`))
		assert.Error(t, err)
	})
}
