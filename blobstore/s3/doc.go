// Package s3 stores published split caches in an Amazon S3 bucket.
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("caches/ag_news/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	m, err := textcache.Publish(ctx, "./ag_news", corpus.Train, store)
//
// Store files are uploaded through the transfer manager in multipart chunks
// with CRC32C checksums. Fetch reads them back with ranged GETs. Listing
// follows continuation tokens, so a prefix may hold any number of splits.
package s3
