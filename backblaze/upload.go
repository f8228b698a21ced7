// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package backblaze uploads exported result files to a B2 bucket.
package backblaze

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrNotConfigured  = errors.New("backblaze credentials are not configured")
)

// Destination returns the configured bucket and directory, or
// ErrNotConfigured when uploads are not set up
func Destination() (string, string, error) {
	bucket := viper.GetString("backblaze.bucket")
	if bucket == "" || viper.GetString("backblaze.application_id") == "" {
		return "", "", ErrNotConfigured
	}

	return bucket, viper.GetString("backblaze.directory"), nil
}

// ObjectName is the name fn is stored under in dirname
func ObjectName(dirname, fn string) string {
	if dirname == "" {
		return filepath.Base(fn)
	}
	return path.Join(dirname, filepath.Base(fn))
}

// Upload copies an exported file to bucketName under dirname
func Upload(fn, bucketName, dirname string) error {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          viper.GetString("backblaze.application_id"),
		ApplicationKey: viper.GetString("backblaze.application_key"),
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", bucketName).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(bucketName)
	if err != nil {
		log.Error().Err(err).Str("BucketName", bucketName).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		log.Error().Str("BucketName", bucketName).Msg("bucket does not exist")
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketName)
	}

	reader, err := os.Open(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not open export for upload")
		return err
	}
	defer reader.Close()

	outName := ObjectName(dirname, fn)
	meta := make(map[string]string)
	if contentType := mime.TypeByExtension(filepath.Ext(fn)); contentType != "" {
		meta["content-type"] = contentType
	}

	file, err := bucket.UploadFile(outName, meta, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", bucketName).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded export to backblaze")
	return nil
}
