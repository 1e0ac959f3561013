// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. Sites that mirror the
// NCBI BLAST volumes on premises, or host their index artifacts outside
// AWS, can serve both through this store from MinIO, Ceph, SeaweedFS,
// Garage, or any other S3-compatible backend.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "blast", "2023-03-14-01-05-02/")
//
// # Features
//
//   - Range reads for partial volume fetches
//   - Streaming uploads for large artifacts
//   - Air-gap friendly (no AWS dependencies required)
package minio
