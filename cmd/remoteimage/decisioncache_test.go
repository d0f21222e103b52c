package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/function61/gokit/testing/assert"
	"github.com/function61/remoteimage/pkg/remotepattern"
)

func TestDecisionCache(t *testing.T) {
	decisions := newDecisionCache(dashboardPatterns(t))

	for range 2 { // second round is served from cache
		assert.Equal(t, decisions.IsAllowed("https://extrai.ia/dashboard/a.png"), true)
		assert.Equal(t, decisions.IsAllowed("https://extrai.ia/admin/a.png"), false)
	}

	assert.Equal(t, decisions.cache.ItemCount(), 1)

	long := "https://extrai.ia/dashboard/" + strings.Repeat("a", maxCachedUrlLength)
	assert.Equal(t, decisions.IsAllowed(long), true)
	assert.Equal(t, decisions.cache.ItemCount(), 1)
}

func TestDecisionCacheDoesNotStoreDenials(t *testing.T) {
	decisions := newDecisionCache(dashboardPatterns(t))

	for i := 0; i < 5000; i++ {
		assert.Equal(t, decisions.IsAllowed(fmt.Sprintf("https://junk%d.example.com/a.png", i)), false)
	}

	assert.Equal(t, decisions.cache.ItemCount(), 0)
}

func TestDecisionCacheIsBounded(t *testing.T) {
	decisions := newDecisionCache(dashboardPatterns(t))

	for i := 0; i < maxCachedDecisions+500; i++ {
		assert.Equal(t, decisions.IsAllowed(fmt.Sprintf("https://extrai.ia/dashboard/%d.png", i)), true)
	}

	assert.Equal(t, decisions.cache.ItemCount(), maxCachedDecisions)

	// still evaluated correctly once full
	assert.Equal(t, decisions.IsAllowed("https://extrai.ia/admin/a.png"), false)
}

func dashboardPatterns(t *testing.T) *remotepattern.Set {
	t.Helper()

	patterns, err := remotepattern.NewSet([]remotepattern.AllowRule{
		{Scheme: "https", Host: "extrai.ia", PathPrefix: "/dashboard/**"},
	})
	assert.Ok(t, err)

	return patterns
}
