// Copyright 2025 walteh LLC
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

package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/config"
	"github.com/walteh/vfsops/pkg/provider"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

func init() {
	provider.Register("github", New)
}

// 🎯 FS exposes the contents of a GitHub repository at a ref, read only
type FS struct {
	name   string
	owner  string
	repo   string
	ref    string
	client *github.Client
}

var _ provider.FileSystem = (*FS)(nil)

// 🏭 New creates a GitHub file system, authenticated when GITHUB_TOKEN is set
func New(ctx context.Context, src config.Source) (provider.FileSystem, error) {
	logger := zerolog.Ctx(ctx)

	httpClient := http.DefaultClient
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		logger.Debug().Str("source", src.Name).Msg("GITHUB_TOKEN not set, using anonymous access")
	}

	client := github.NewClient(httpClient)
	if src.Endpoint != "" {
		base, err := url.Parse(strings.TrimSuffix(src.Endpoint, "/") + "/")
		if err != nil {
			return nil, errors.Errorf("parsing endpoint: %w", err)
		}
		client.BaseURL = base
	}

	return NewWithClient(src.Name, src.Repo, src.Ref, client)
}

// 🔧 NewWithClient creates a GitHub file system on an existing client
func NewWithClient(name, repo, ref string, client *github.Client) (*FS, error) {
	owner, repoName, err := parseRepo(repo)
	if err != nil {
		return nil, errors.Errorf("parsing repo: %w", err)
	}
	if ref == "" {
		ref = "main"
	}

	return &FS{
		name:   name,
		owner:  owner,
		repo:   repoName,
		ref:    ref,
		client: client,
	}, nil
}

// 🔍 parseRepo parses a GitHub repository URL
func parseRepo(repo string) (owner, name string, err error) {
	repo = strings.TrimSuffix(strings.TrimSuffix(repo, "/"), ".git")
	parts := strings.Split(repo, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", errors.Errorf("invalid repository format: %s", repo)
	}

	return parts[len(parts)-2], parts[len(parts)-1], nil
}

func (g *FS) Name() string { return g.name }

func (g *FS) contents(ctx context.Context, p string) (*github.RepositoryContent, []*github.RepositoryContent, string, error) {
	rel, err := provider.Clean(p)
	if err != nil {
		return nil, nil, "", err
	}

	file, dir, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, rel, &github.RepositoryContentGetOptions{
		Ref: g.ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil, rel, errors.Errorf("%q: %w", rel, provider.ErrNotFound)
		}
		return nil, nil, rel, errors.Errorf("getting contents of %q: %w", rel, err)
	}
	return file, dir, rel, nil
}

func (g *FS) Stat(ctx context.Context, p string) (provider.Item, error) {
	file, _, rel, err := g.contents(ctx, p)
	if err != nil {
		return provider.Item{}, err
	}
	if file == nil {
		return provider.Item{Path: rel, Name: provider.BaseName(rel), IsDir: true}, nil
	}
	return item(file), nil
}

func (g *FS) List(ctx context.Context, dir string) ([]provider.Item, error) {
	file, entries, rel, err := g.contents(ctx, dir)
	if err != nil {
		return nil, err
	}
	if file != nil {
		return nil, errors.Errorf("listing %q: not a directory", rel)
	}

	items := make([]provider.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, item(entry))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (g *FS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	file, _, rel, err := g.contents(ctx, p)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, errors.Errorf("opening %q: %w", rel, provider.ErrIsDirectory)
	}

	// files above the contents API limit come back without inline content
	if file.Content == nil || file.GetEncoding() == "none" {
		rc, _, err := g.client.Repositories.DownloadContents(ctx, g.owner, g.repo, rel, &github.RepositoryContentGetOptions{
			Ref: g.ref,
		})
		if err != nil {
			return nil, errors.Errorf("downloading %q: %w", rel, err)
		}
		return rc, nil
	}

	data, err := file.GetContent()
	if err != nil {
		return nil, errors.Errorf("decoding %q: %w", rel, err)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (g *FS) Create(ctx context.Context, p string, r io.Reader, size int64) error {
	return errors.Errorf("creating %q on %s: %w", p, g.name, provider.ErrReadOnly)
}

func (g *FS) MakeDir(ctx context.Context, p string) error {
	return errors.Errorf("creating directory %q on %s: %w", p, g.name, provider.ErrReadOnly)
}

func (g *FS) Remove(ctx context.Context, p string, recursive bool) error {
	return errors.Errorf("removing %q on %s: %w", p, g.name, provider.ErrReadOnly)
}

// 🔗 Permalink returns a permanent link to a path at the configured ref
func (g *FS) Permalink(p string) string {
	return "https://github.com/" + g.owner + "/" + g.repo + "/blob/" + g.ref + "/" + strings.TrimPrefix(p, "/")
}

func item(c *github.RepositoryContent) provider.Item {
	isDir := c.GetType() == "dir"
	size := int64(c.GetSize())
	if isDir {
		size = 0
	}
	return provider.Item{
		Path:  c.GetPath(),
		Name:  c.GetName(),
		Size:  size,
		IsDir: isDir,
	}
}
