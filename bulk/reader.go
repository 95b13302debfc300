// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNotExist indicates the named file is absent from the data root.
	ErrNotExist = errors.New("bulk file does not exist")

	// ErrInvalidRoot indicates a data root that cannot be parsed.
	ErrInvalidRoot = errors.New("invalid bulk data root")
)

// Reader opens files relative to a bulk data root.
type Reader interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Root describes the data root for logs.
	Root() string
}

// RootType represents the kind of data root.
type RootType string

const (
	RootTypeDir RootType = "dir"
	RootTypeS3  RootType = "s3"
)

// S3Config holds credentials and addressing for an S3 data root.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	AccessKey    string
	SecretKey    string
	Endpoint     string // For S3-compatible stores
	UsePathStyle bool
}

// ParseRoot classifies root. "s3://bucket/prefix" yields an S3 root with the
// bucket and prefix filled into cfg; anything else is a directory.
func ParseRoot(root string, cfg S3Config) (RootType, S3Config, error) {
	rest, ok := strings.CutPrefix(root, "s3://")
	if !ok {
		if root == "" {
			return "", cfg, fmt.Errorf("%w: empty path", ErrInvalidRoot)
		}
		return RootTypeDir, cfg, nil
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", cfg, fmt.Errorf("%w: %q has no bucket", ErrInvalidRoot, root)
	}
	cfg.Bucket = bucket
	cfg.Prefix = strings.Trim(prefix, "/")
	return RootTypeS3, cfg, nil
}

// NewReader creates a Reader for root, which is either a local directory or
// an s3:// URL.
func NewReader(ctx context.Context, root string, cfg S3Config) (Reader, error) {
	kind, cfg, err := ParseRoot(root, cfg)
	if err != nil {
		return nil, err
	}
	switch kind {
	case RootTypeS3:
		return NewS3Reader(ctx, cfg)
	default:
		return NewDirReader(root)
	}
}
