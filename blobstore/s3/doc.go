// Package s3 provides S3 implementations of the blobstore.BlobStore interface.
//
// Three stores cover the three deployment shapes. Store is the read-write
// store for hosting index artifacts in a private bucket. PublicStore reads
// public buckets anonymously and is preconfigured for the NCBI BLAST
// open-data mirror, so sequence ranges can be fetched without an AWS
// account. ReleaseStore layers DynamoDB over Store to commit CURRENT
// atomically when several builders publish against the same catalog.
//
// # Usage
//
//	client := s3.NewFromConfig(cfg)
//	store := s3blob.NewStore(client, "my-bucket", "taxonomy/")
//
// Reading sequence volumes straight from NCBI needs no credentials:
//
//	store, err := s3blob.NewNCBIStore(ctx)
//	blob, err := store.Open(ctx, "2023-03-14-01-05-02/nt.03.nsq")
//
// # Features
//
//   - Range reads for partial volume fetches
//   - Multipart uploads with CRC32C validation for large artifacts
//   - Conditional writes for manifest publication
//   - Automatic pagination for listing
package s3
