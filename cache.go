// MIT License
//
// Copyright (c) 2016 Rick Beton
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package staticserve

import (
	"sync"
	"time"
)

// Artifact is spec.md §3's cacheable, fully materialized response
// body: already encoded when Encoding != Identity, paired with the
// metadata the response emitter needs to write headers without
// re-touching the filesystem.
type Artifact struct {
	Path     string
	Mtime    time.Time
	Bytes    []byte
	Encoding Encoding
	Type     string
}

// cacheShard is spec.md §3's CacheShard: one map per encoding from
// absolute path to Artifact. Backed by sync.Map for the lock-free-read,
// serialized-insert property spec.md §5 requires; "a new entry
// replaces the old atomically" is sync.Map.Store's own guarantee, and
// "duplicate inserts are benign" is likewise free.
type cacheShard struct {
	m sync.Map // string -> *Artifact
}

func (s *cacheShard) get(path string) (*Artifact, bool) {
	v, ok := s.m.Load(path)
	if !ok {
		return nil, false
	}
	return v.(*Artifact), true
}

func (s *cacheShard) put(path string, a *Artifact) {
	s.m.Store(path, a)
}

// artifactCache is the handler-owned set of four shards, one per
// Encoding, per spec.md §3/§9 design note 2 ("there is no legitimate
// reason for [caches] to be globals"). There is no eviction policy, as
// spec.md §4.3 allows; admission is gated purely by size.
type artifactCache struct {
	enabled      bool
	maxCacheSize int64
	shards       [numEncodings]cacheShard
}

func newArtifactCache(enabled bool, maxCacheSize int64) *artifactCache {
	return &artifactCache{enabled: enabled, maxCacheSize: maxCacheSize}
}

// lookup returns a cache hit for (path, encoding), or (nil, false) on
// a miss. There is deliberately no mtime/staleness check here: a hit
// is served without touching the filesystem at all, and spec.md §1
// lists "hot file-change invalidation" as a non-goal, so a file
// replaced in place after it was cached keeps serving the cached
// bytes until the process restarts.
func (c *artifactCache) lookup(path string, enc Encoding) (*Artifact, bool) {
	if !c.enabled {
		return nil, false
	}
	return c.shards[enc].get(path)
}

// admit stores an artifact if the admission rules of spec.md §4.3 are
// satisfied: caching enabled, file size under maxCacheSize, and (by
// construction — admit is only ever called after) a successful read.
func (c *artifactCache) admit(size int64, a *Artifact) {
	if !c.enabled {
		return
	}
	if c.maxCacheSize > 0 && size >= c.maxCacheSize {
		return
	}
	c.shards[a.Encoding].put(a.Path, a)
}
