package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/textcache/blobstore"
	"github.com/hupe1980/textcache/blobstore/minio"
	"github.com/hupe1980/textcache/blobstore/s3"
)

func openRemote(ctx context.Context, rc remoteConfig) (blobstore.BlobStore, error) {
	switch rc.Kind {
	case "local", "":
		if rc.Path == "" {
			return nil, errors.New("-remote-path is required for a local remote")
		}
		return blobstore.NewLocalStore(rc.Path), nil

	case "s3":
		if rc.Bucket == "" {
			return nil, errors.New("-bucket is required for s3")
		}
		var opts []s3.Option
		if rc.Prefix != "" {
			opts = append(opts, s3.WithPrefix(rc.Prefix))
		}
		if rc.Region != "" {
			opts = append(opts, s3.WithRegion(rc.Region))
		}
		if rc.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(rc.Endpoint))
		}
		return s3.New(ctx, rc.Bucket, opts...)

	case "minio":
		if rc.Bucket == "" || rc.Endpoint == "" {
			return nil, errors.New("-bucket and -endpoint are required for minio")
		}
		return minio.Dial(ctx, minio.Config{
			Endpoint:  rc.Endpoint,
			AccessKey: cmp.Or(rc.AccessKey, os.Getenv("MINIO_ACCESS_KEY")),
			SecretKey: cmp.Or(rc.SecretKey, os.Getenv("MINIO_SECRET_KEY")),
			Secure:    rc.Secure,
			Region:    rc.Region,
			Bucket:    rc.Bucket,
			Prefix:    rc.Prefix,
		})

	default:
		return nil, fmt.Errorf("unknown remote %q (want local, s3 or minio)", rc.Kind)
	}
}
