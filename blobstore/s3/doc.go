// Package s3 stores saved arrays in an Amazon S3 bucket.
//
//	store, err := s3.New(ctx, "scans", s3.WithPrefix("2026/"), s3.WithRegion("eu-central-1"))
//	if err != nil {
//	    return err
//	}
//	err = img.Save(ctx, store, "volume-17.lgar")
//
// Saving streams the serialized array through a multipart upload, so an
// array larger than memory never needs a local copy. Each part carries a
// CRC32C checksum. Loading reads the object with ranged GETs.
//
// Any S3-compatible endpoint works with WithEndpoint; path-style addressing
// is enabled whenever an endpoint is set.
package s3
