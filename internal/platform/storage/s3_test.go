package storage

import (
	"testing"

	"messease/internal/platform/config"
)

func TestPublicBase(t *testing.T) {
	cases := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{S3PublicBaseURL: "https://cdn.example.com/", S3Bucket: "b"}, "https://cdn.example.com"},
		{config.Config{S3Endpoint: "http://minio:9000", S3Bucket: "photos"}, "http://minio:9000/photos"},
		{config.Config{S3Bucket: "photos", S3Region: "ap-south-1"}, "https://photos.s3.ap-south-1.amazonaws.com"},
	}
	for _, tc := range cases {
		if got := publicBase(tc.cfg); got != tc.want {
			t.Fatalf("publicBase = %q, want %q", got, tc.want)
		}
	}
}

func TestURLJoinsKey(t *testing.T) {
	c := &S3Client{baseURL: "https://cdn.example.com"}
	if got := c.URL("/reviews/r1/a.png"); got != "https://cdn.example.com/reviews/r1/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestOriginStripsPath(t *testing.T) {
	c := &S3Client{baseURL: "http://minio:9000/photos"}
	if got := c.Origin(); got != "http://minio:9000" {
		t.Fatalf("unexpected origin %q", got)
	}
}
