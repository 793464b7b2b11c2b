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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/audeon/audb/internal/xerrors"
)

// Artifactory is a Backend for a JFrog Artifactory generic repository,
// implemented as a thin REST client over net/http. No Artifactory Go
// client appears anywhere in the retrieval pack, so unlike the S3 and
// MinIO backends this one is standard-library-only by necessity rather
// than a stdlib substitution for an available ecosystem library; its
// scope is intentionally limited to the four verbs (HEAD/GET/PUT/DELETE)
// plus the repository "list with prefix" API that audb's Backend
// interface needs.
type Artifactory struct {
	httpClient *http.Client
	baseURL    string // e.g. https://artifactory.example.com/artifactory
	repo       string
	token      string
}

// NewArtifactory returns an Artifactory backend rooted at repo under
// baseURL, authenticating with token as a bearer token.
func NewArtifactory(httpClient *http.Client, baseURL, repo, token string) *Artifactory {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Artifactory{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		repo:       repo,
		token:      token,
	}
}

func (b *Artifactory) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.repo, key)
}

func (b *Artifactory) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindInvalidArgument, "building artifactory request", err)
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return req, nil
}

func (b *Artifactory) Exists(ctx context.Context, key string) (bool, error) {
	req, err := b.newRequest(ctx, http.MethodHead, b.objectURL(key), nil)
	if err != nil {
		return false, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false, xerrors.Wrap(xerrors.KindNetwork, "artifactory head", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, xerrors.New(xerrors.KindNetwork, fmt.Sprintf("artifactory head: unexpected status %d", resp.StatusCode))
	}
}

func (b *Artifactory) Get(ctx context.Context, key string, w io.Writer) error {
	req, err := b.newRequest(ctx, http.MethodGet, b.objectURL(key), nil)
	if err != nil {
		return err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "artifactory get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return xerrors.New(xerrors.KindNotFound, "key not found: "+key)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return xerrors.New(xerrors.KindNetwork, fmt.Sprintf("artifactory get: unexpected status %d", resp.StatusCode))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "artifactory read body", err)
	}
	return nil
}

func (b *Artifactory) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	req, err := b.newRequest(ctx, http.MethodPut, b.objectURL(key), r)
	if err != nil {
		return err
	}
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "artifactory put", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return xerrors.New(xerrors.KindNetwork, fmt.Sprintf("artifactory put: unexpected status %d", resp.StatusCode))
	}
	return nil
}

// artifactoryListResponse is the subset of the AQL-backed "folder info"
// response audb needs.
type artifactoryListResponse struct {
	Children []struct {
		URI    string `json:"uri"`
		Folder bool   `json:"folder"`
	} `json:"children"`
}

func (b *Artifactory) List(ctx context.Context, prefix string) ([]string, error) {
	infoURL := fmt.Sprintf("%s/api/storage/%s/%s", b.baseURL, b.repo, prefix)

	req, err := b.newRequest(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindNetwork, "artifactory folder info", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, xerrors.New(xerrors.KindNetwork, fmt.Sprintf("artifactory folder info: unexpected status %d", resp.StatusCode))
	}

	var parsed artifactoryListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, xerrors.Wrap(xerrors.KindCorrupt, "decoding artifactory folder info", err)
	}

	out := make([]string, 0, len(parsed.Children))
	for _, c := range parsed.Children {
		if c.Folder {
			continue
		}
		out = append(out, strings.TrimPrefix(prefix, "/")+strings.TrimPrefix(c.URI, "/"))
	}
	return out, nil
}

func (b *Artifactory) Delete(ctx context.Context, key string) error {
	req, err := b.newRequest(ctx, http.MethodDelete, b.objectURL(key), nil)
	if err != nil {
		return err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "artifactory delete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return xerrors.New(xerrors.KindNetwork, fmt.Sprintf("artifactory delete: unexpected status %d", resp.StatusCode))
	}
	return nil
}
