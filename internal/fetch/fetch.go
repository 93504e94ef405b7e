// Package fetch downloads Unity AssetBundle files and the class database
// manifest from a remote content host, caching them on disk between
// runs.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/voxelbound/unitybundle/internal/cache"
	"github.com/voxelbound/unitybundle/internal/progress"
)

// Fetcher downloads bundles and the class database manifest from a
// single base URL into a local Cache.
type Fetcher struct {
	BaseURL string
	Cache   *cache.Cache
}

// New returns a Fetcher rooted at baseURL, caching downloads into c.
func New(baseURL string, c *cache.Cache) *Fetcher {
	return &Fetcher{BaseURL: baseURL, Cache: c}
}

// ConstructURL joins the fetcher's base URL with filename.
func (f *Fetcher) ConstructURL(filename string) string {
	return fmt.Sprintf("%s/%s", f.BaseURL, path.Clean("/"+filename))
}

// DownloadManifest fetches the class database manifest, skipping the
// download if already cached unless force is set.
func (f *Fetcher) DownloadManifest(ctx context.Context, force bool) error {
	manifestPath := f.Cache.ManifestPath()

	if !force && f.Cache.FileExists(manifestPath) && f.Cache.FileSize(manifestPath) > 0 {
		return nil
	}

	url := f.ConstructURL("classdb.bin")
	slog.Info("fetching class database manifest", "url", url, "destination", manifestPath)

	if err := f.Cache.EnsureDir(f.Cache.Dir()); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := downloadFile(ctx, manifestPath, url); err != nil {
		return fmt.Errorf("downloading manifest from %s: %w", url, err)
	}
	if f.Cache.FileSize(manifestPath) == 0 {
		return fmt.Errorf("downloaded manifest is empty")
	}
	return nil
}

// DownloadBundles fetches each named bundle, skipping any already
// cached unless force is set. progressEnabled renders a progress bar for
// the batch.
func (f *Fetcher) DownloadBundles(ctx context.Context, bundleNames []string, force, progressEnabled bool) error {
	toDownload := make([]string, 0, len(bundleNames))
	for _, name := range bundleNames {
		bundlePath := f.Cache.BundlePath(name)
		if !force && f.Cache.FileExists(bundlePath) && f.Cache.FileSize(bundlePath) > 0 {
			slog.Debug("bundle already cached", "bundle", name)
			continue
		}
		toDownload = append(toDownload, name)
	}

	if len(toDownload) == 0 {
		slog.Info("using cached bundles")
		return nil
	}

	slog.Info("downloading bundles", "count", len(toDownload))
	bar := progress.New(len(toDownload), progressEnabled)

	var bytesDownloaded int64
	for i, name := range toDownload {
		bundlePath := f.Cache.BundlePath(name)
		if err := f.Cache.EnsureDir(f.Cache.Dir()); err != nil {
			return fmt.Errorf("creating cache directory for bundle %s: %w", name, err)
		}

		url := f.ConstructURL(name)
		if !progressEnabled {
			slog.Info("downloading bundle", "bundle", name)
		}
		if err := downloadFile(ctx, bundlePath, url); err != nil {
			return fmt.Errorf("downloading bundle %s from %s: %w", name, url, err)
		}
		size := f.Cache.FileSize(bundlePath)
		if size == 0 {
			return fmt.Errorf("downloaded bundle %s is empty", name)
		}
		bytesDownloaded += size

		bar.Update(i+1, name, bytesDownloaded)
	}

	bar.Finish()
	return nil
}
