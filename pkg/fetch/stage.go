package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/scmtx/scmtx-db/internal/logctx"
)

// Stage resolves each input to a local path, downloading s3:// URIs into
// stagingDir concurrently. The returned slice is index-aligned with paths.
// A nil client is allowed as long as every input is already local.
func Stage(ctx context.Context, client *Client, stagingDir string, paths []string) ([]string, error) {
	local := make([]string, len(paths))

	var remote int
	for _, p := range paths {
		if IsS3URI(p) {
			remote++
		}
	}
	if remote == 0 {
		copy(local, paths)
		return local, nil
	}
	if client == nil {
		return nil, fmt.Errorf("s3:// inputs given but no S3 client configured")
	}

	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	log := logctx.FromContext(ctx).With().Str("phase", "stage").Logger()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(remote)

	for i, p := range paths {
		if !IsS3URI(p) {
			local[i] = p
			continue
		}
		g.Go(func() error {
			dest, err := client.download(ctx, stagingDir, p)
			if err != nil {
				return err
			}
			log.Info().Str("uri", p).Str("local", dest).Msg("staged input")
			local[i] = dest
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stage inputs: %w", err)
	}
	return local, nil
}

// download fetches one object into dir, named after the final key segment.
func (c *Client) download(ctx context.Context, dir, uri string) (string, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, filepath.Base(key))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("download %s: %w", uri, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return dest, nil
}
