// Package publish uploads finished renders to S3 or an S3-compatible store.
package publish
