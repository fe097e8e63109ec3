// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobseed uploads sample data files to the storage container a
// factory's pipelines read from, so a freshly provisioned environment
// has something for its copy activities to move.
package blobseed

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// Store is the subset of blob storage operations seeding needs.
type Store interface {
	UploadFile(ctx context.Context, container, blobName string, file *os.File) error
	ListBlobs(ctx context.Context, container, prefix string) ([]string, error)
}

// AccountURL returns the blob service endpoint of a storage account.
func AccountURL(account string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/", account)
}

// AzureStore implements Store over an azblob client.
type AzureStore struct {
	client *azblob.Client
}

// NewAzureStore wraps an existing client.
func NewAzureStore(client *azblob.Client) *AzureStore {
	return &AzureStore{client: client}
}

// Connect returns a store for the storage account, authenticating
// with credential.
func Connect(account string, credential azcore.TokenCredential, options *azblob.ClientOptions) (*AzureStore, error) {
	client, err := azblob.NewClient(AccountURL(account), credential, options)
	if err != nil {
		return nil, fmt.Errorf("creating blob client for %s: %w", account, err)
	}
	return NewAzureStore(client), nil
}

func (s *AzureStore) UploadFile(ctx context.Context, container, blobName string, file *os.File) error {
	_, err := s.client.UploadFile(ctx, container, blobName, file, nil)
	return err
}

func (s *AzureStore) ListBlobs(ctx context.Context, container, prefix string) ([]string, error) {
	var options *azblob.ListBlobsFlatOptions
	if prefix != "" {
		options = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}
	pager := s.client.NewListBlobsFlatPager(container, options)

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

// Request describes one seeding upload.
type Request struct {
	Container string

	// Folder is the virtual directory inside the container. Empty
	// uploads to the container root.
	Folder string

	// File is the local file to upload. The blob keeps its base name.
	File string
}

// BlobName returns the name the file is stored under.
func (r Request) BlobName() string {
	name := filepath.Base(r.File)
	folder := strings.Trim(r.Folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// Result reports the uploaded blob and the container contents under its
// folder after the upload.
type Result struct {
	Container string   `json:"container"`
	Blob      string   `json:"blob"`
	Listing   []string `json:"listing"`
}

// Upload stores the request's file and lists the folder it landed in.
func Upload(ctx context.Context, store Store, request Request) (*Result, error) {
	if request.Container == "" {
		return nil, fmt.Errorf("container name is required")
	}
	file, err := os.Open(request.File)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer file.Close()

	blobName := request.BlobName()
	if err := store.UploadFile(ctx, request.Container, blobName, file); err != nil {
		return nil, fmt.Errorf("uploading %s to %s/%s: %w", request.File, request.Container, blobName, err)
	}

	prefix := ""
	if folder := strings.Trim(request.Folder, "/"); folder != "" {
		prefix = folder + "/"
	}
	listing, err := store.ListBlobs(ctx, request.Container, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing container %s: %w", request.Container, err)
	}
	return &Result{Container: request.Container, Blob: blobName, Listing: listing}, nil
}
