// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and works with other S3-compatible storage such as
// Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "images",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("scans/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = img.Save(ctx, store, "scan-0001.lgar")
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
