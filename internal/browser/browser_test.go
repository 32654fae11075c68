package browser

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

func TestMatchesAny(t *testing.T) {
	patterns := []string{"/voyager/api/", "/graphql"}

	assert.True(t, matchesAny(patterns, "https://x.com/voyager/api/search/dash/clusters"))
	assert.True(t, matchesAny(patterns, "https://x.com/graphql?query=1"))
	assert.False(t, matchesAny(patterns, "https://x.com/static/app.js"))
	assert.False(t, matchesAny(nil, "https://x.com/voyager/api/"))
	assert.False(t, matchesAny([]string{""}, "anything"), "an empty pattern never matches")
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := (&Options{}).withDefaults()

	assert.Equal(t, EngineChromedp, opts.Engine)
	assert.Equal(t, DefaultUserAgent, opts.UserAgent)
	assert.Equal(t, 30*time.Second, opts.NavTimeout)
	assert.Equal(t, []string{"/voyager/api/"}, opts.CapturePatterns)

	custom := (&Options{Engine: EngineRod, NavTimeout: time.Minute}).withDefaults()
	assert.Equal(t, EngineRod, custom.Engine)
	assert.Equal(t, time.Minute, custom.NavTimeout)
}

func TestSameSiteFromString(t *testing.T) {
	assert.Equal(t, network.CookieSameSiteLax, sameSiteFromString("Lax"))
	assert.Equal(t, network.CookieSameSiteStrict, sameSiteFromString("strict"))
	assert.Equal(t, network.CookieSameSiteNone, sameSiteFromString("no_restriction"))
	assert.Equal(t, network.CookieSameSite(""), sameSiteFromString("unspecified"))
}
