// Package sampler captures point-in-time disk usage totals for a set of
// monitored roots, with an optional short-TTL cache for high-frequency
// callers.
package sampler

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/models"
)

// Sampler captures disk usage samples and optionally serves them from a
// bounded, TTL-scoped cache. The zero value is not usable; construct with
// New.
type Sampler struct {
	cache *ttlCache
}

// New returns a Sampler with its cache capacity bound to maxCacheEntries.
// A non-positive value disables caching (Sample always recomputes).
func New(maxCacheEntries int) *Sampler {
	return &Sampler{cache: newTTLCache(maxCacheEntries)}
}

// Capture walks each root recursively and sums the size of regular files
// whose path does not fall inside any exclusion root. Symbolic links are
// never followed. Inaccessible entries below a root are skipped silently;
// a missing root is skipped as well. A root that exists but cannot be
// read at all (e.g. permission denied on the root directory itself) is
// fatal and returned as an IOUnavailable error rather than folded into a
// best-effort total. Capture never consults or populates the cache; it
// is the baseline-establishing primitive.
func (s *Sampler) Capture(roots, exclusions []string) (models.DiskSample, error) {
	var total int64
	for _, root := range roots {
		if _, err := os.Lstat(root); err != nil {
			continue // missing root, skipped
		}
		bytes, err := walkRoot(root, exclusions)
		if err != nil {
			return models.DiskSample{}, errkind.New(errkind.IOUnavailable, "Sampler.Capture", err)
		}
		total += bytes
	}
	return models.DiskSample{
		Timestamp: time.Now(),
		BytesUsed: total,
		PathLabel: strings.Join(roots, ","),
	}, nil
}

// Sample behaves identically to Capture but consults this Sampler's TTL
// cache keyed by the canonical (sorted roots, sorted exclusions) pair.
// A cache hit within cacheTTL returns the stored sample unchanged,
// including its original timestamp.
func (s *Sampler) Sample(roots, exclusions []string, cacheTTL time.Duration) (models.DiskSample, error) {
	key := cacheKey(roots, exclusions)
	if cacheTTL > 0 {
		if sample, ok := s.cache.get(key, cacheTTL); ok {
			return sample, nil
		}
	}
	sample, err := s.Capture(roots, exclusions)
	if err != nil {
		return models.DiskSample{}, err
	}
	if cacheTTL > 0 {
		s.cache.put(key, sample)
	}
	return sample, nil
}

func cacheKey(roots, exclusions []string) string {
	r := append([]string(nil), roots...)
	e := append([]string(nil), exclusions...)
	sort.Strings(r)
	sort.Strings(e)
	return strings.Join(r, "\x00") + "\x01" + strings.Join(e, "\x00")
}

// walkRoot sums regular-file sizes under root, excluding anything inside
// an exclusion path and never following symlinks. A read failure on root
// itself is fatal and returned to the caller; a failure on any entry
// beneath root is skipped silently.
func walkRoot(root string, exclusions []string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // inaccessible entry, skip silently
		}
		if isExcluded(path, exclusions) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			info, ierr := d.Info()
			if ierr != nil {
				return nil
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// isExcluded reports whether path equals, or is a descendant of, any
// exclusion root.
func isExcluded(path string, exclusions []string) bool {
	for _, ex := range exclusions {
		if path == ex {
			return true
		}
		rel, err := filepath.Rel(ex, path)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && rel != "") {
			return true
		}
	}
	return false
}
