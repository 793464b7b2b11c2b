/*
 audb, a versioned, content-addressed database manager for annotated
 media corpora.
 Copyright (C) 2026 audb contributors

 This program is free software: you can redistribute it and/or modify
 it under the terms of the GNU Affero General Public License as published by
 the Free Software Foundation, either version 3 of the License, or
 (at your option) any later version.

 This program is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 GNU Affero General Public License for more details.

 You should have received a copy of the GNU Affero General Public License
 along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package backend

import (
	"context"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/internal/xerrors"
)

// New constructs the Backend named by cfg.BackendKind, wiring up a
// concrete client per backend.
func New(ctx context.Context, cfg config.RepositoryConfig) (Backend, error) {
	switch Kind(cfg.BackendKind) {
	case KindFileSystem:
		return NewFileSystem(cfg.Host)

	case KindS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion("auto"),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey, cfg.SecretKey, "",
			)),
		)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindAuth, "loading s3 credentials", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Host != "" {
				o.BaseEndpoint = &cfg.Host
			}
			o.UsePathStyle = cfg.UsePathStyle
		})
		return NewS3(client, cfg.Bucket), nil

	case KindMinIO:
		client, err := minio.New(cfg.Host, &minio.Options{
			Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: true,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindAuth, "constructing minio client", err)
		}
		return NewMinIO(client, cfg.Bucket), nil

	case KindArtifactory:
		return NewArtifactory(http.DefaultClient, cfg.Host, cfg.Bucket, cfg.Token), nil

	default:
		return nil, errUnsupported(Kind(cfg.BackendKind))
	}
}
