package main

import (
	"time"

	"github.com/function61/remoteimage/pkg/remotepattern"
	"github.com/patrickmn/go-cache"
)

const (
	// longer URLs are evaluated every time
	maxCachedUrlLength = 2048
	// past this, new decisions are evaluated but not stored until entries expire
	maxCachedDecisions = 10000
)

// memoizes admitted image URLs. the rule set is immutable for the process lifetime, so a
// cached decision never goes stale. denials are not stored: anyone can send unlimited
// distinct junk URLs, and those must not grow memory.
type decisionCache struct {
	patterns *remotepattern.Set
	cache    *cache.Cache
}

func newDecisionCache(patterns *remotepattern.Set) *decisionCache {
	return &decisionCache{
		patterns: patterns,
		cache:    cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (d *decisionCache) IsAllowed(imageUrl string) bool {
	if _, isCached := d.cache.Get(imageUrl); isCached {
		return true
	}

	allowed := d.patterns.IsAllowed(imageUrl)

	if allowed && len(imageUrl) <= maxCachedUrlLength && d.cache.ItemCount() < maxCachedDecisions {
		d.cache.SetDefault(imageUrl, true)
	}

	return allowed
}
