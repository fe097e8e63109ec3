// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive exports pipeline definitions from a factory and reads
// them back for upload. Definitions are written either as a directory
// of <name>.json files (the layout "pipeline upload" reads) or as a
// single zstd-compressed tar archive carrying a digest manifest.
package archive

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/jeffbrennan/mario/lib/pipelinedef"
)

// ManifestName is the archive member listing every pipeline file and
// its digest. It is always the first member.
const ManifestName = "manifest.json"

// Extension is the file suffix of a pipeline archive.
const Extension = ".tar.zst"

const manifestVersion = 1

// Manifest describes an archive's contents.
type Manifest struct {
	Version   int       `json:"version"`
	Factory   string    `json:"factory,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Pipelines []Member  `json:"pipelines"`
}

// Member is one pipeline file in an archive.
type Member struct {
	Name string `json:"name"`
	File string `json:"file"`

	// Digest is the hex BLAKE3-256 hash of the file bytes.
	Digest string `json:"digest"`
}

// Export is one pipeline rendered for writing.
type Export struct {
	Name string
	File string
	Data []byte
}

// Prepare renders resources in the exported file format, sorted by
// name. Resources without a name are rejected.
func Prepare(resources []*armdatafactory.PipelineResource) ([]Export, error) {
	exports := make([]Export, 0, len(resources))
	seen := make(map[string]bool, len(resources))
	for index, resource := range resources {
		if resource == nil || resource.Name == nil || *resource.Name == "" {
			return nil, fmt.Errorf("pipeline at index %d has no name", index)
		}
		name := *resource.Name
		if problem := pipelinedef.ValidateName(name); problem != "" {
			return nil, fmt.Errorf("pipeline %q: %s", name, problem)
		}
		if seen[name] {
			return nil, fmt.Errorf("pipeline %q appears twice", name)
		}
		seen[name] = true

		data, err := pipelinedef.Format(resource)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		exports = append(exports, Export{Name: name, File: name + ".json", Data: data})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })
	return exports, nil
}

// WriteDir writes each resource to dir/<name>.json, creating dir if
// needed, and returns the written paths. Existing files are replaced
// only when overwrite is set.
func WriteDir(dir string, resources []*armdatafactory.PipelineResource, overwrite bool) ([]string, error) {
	exports, err := Prepare(resources)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	paths := make([]string, 0, len(exports))
	for _, export := range exports {
		target := filepath.Join(dir, export.File)
		file, err := os.OpenFile(target, flags, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return paths, fmt.Errorf("%s already exists (use --overwrite to replace it)", target)
			}
			return paths, fmt.Errorf("creating %s: %w", target, err)
		}
		if _, err := file.Write(export.Data); err != nil {
			file.Close()
			return paths, fmt.Errorf("writing %s: %w", target, err)
		}
		if err := file.Close(); err != nil {
			return paths, fmt.Errorf("closing %s: %w", target, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}

// WriteArchive writes resources to w as a zstd-compressed tar stream.
// The manifest is the first member. factory is recorded in the
// manifest for reference only.
func WriteArchive(w io.Writer, factory string, createdAt time.Time, resources []*armdatafactory.PipelineResource) (*Manifest, error) {
	exports, err := Prepare(resources)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Version:   manifestVersion,
		Factory:   factory,
		CreatedAt: createdAt.UTC(),
		Pipelines: make([]Member, 0, len(exports)),
	}
	for _, export := range exports {
		manifest.Pipelines = append(manifest.Pipelines, Member{
			Name:   export.Name,
			File:   export.File,
			Digest: pipelinedef.DigestBytes(export.Data),
		})
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	compressor, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}
	tarWriter := tar.NewWriter(compressor)

	writeMember := func(name string, data []byte) error {
		header := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: manifest.CreatedAt,
			Format:  tar.FormatPAX,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("writing header for %s: %w", name, err)
		}
		if _, err := tarWriter.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}

	if err := writeMember(ManifestName, manifestData); err != nil {
		compressor.Close()
		return nil, err
	}
	for _, export := range exports {
		if err := writeMember(export.File, export.Data); err != nil {
			compressor.Close()
			return nil, err
		}
	}
	if err := tarWriter.Close(); err != nil {
		compressor.Close()
		return nil, fmt.Errorf("closing tar stream: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return nil, fmt.Errorf("closing zstd stream: %w", err)
	}
	return manifest, nil
}

// ReadArchive reads an archive written by WriteArchive and returns its
// definitions in manifest order. Every member's digest is verified,
// every manifest entry must be present, and members not listed in the
// manifest are rejected. Definition paths have the form
// "<source>:<file>".
func ReadArchive(r io.Reader, source string) (*Manifest, []*pipelinedef.Definition, error) {
	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer decompressor.Close()

	tarReader := tar.NewReader(decompressor)
	var manifest *Manifest
	expected := make(map[string]Member)
	files := make(map[string][]byte)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			return nil, nil, fmt.Errorf("archive member %s is not a regular file", header.Name)
		}
		name := path.Clean(header.Name)
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}

		if manifest == nil {
			if name != ManifestName {
				return nil, nil, fmt.Errorf("archive does not start with %s (first member is %s)", ManifestName, name)
			}
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, nil, fmt.Errorf("decoding manifest: %w", err)
			}
			if manifest.Version != manifestVersion {
				return nil, nil, fmt.Errorf("manifest version %d is not supported (want %d)", manifest.Version, manifestVersion)
			}
			for _, member := range manifest.Pipelines {
				expected[member.File] = member
			}
			continue
		}

		member, listed := expected[name]
		if !listed {
			return nil, nil, fmt.Errorf("archive member %s is not listed in the manifest", name)
		}
		if _, duplicate := files[name]; duplicate {
			return nil, nil, fmt.Errorf("archive member %s appears twice", name)
		}
		if digest := pipelinedef.DigestBytes(data); digest != member.Digest {
			return nil, nil, fmt.Errorf("archive member %s: digest %s does not match manifest %s", name, digest, member.Digest)
		}
		files[name] = data
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("archive is empty")
	}

	definitions := make([]*pipelinedef.Definition, 0, len(manifest.Pipelines))
	for _, member := range manifest.Pipelines {
		data, present := files[member.File]
		if !present {
			return nil, nil, fmt.Errorf("archive is missing %s listed in the manifest", member.File)
		}
		resource, err := pipelinedef.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%s: %w", source, member.File, err)
		}
		definitions = append(definitions, &pipelinedef.Definition{
			Path:     source + ":" + member.File,
			Resource: *resource,
		})
	}
	return manifest, definitions, nil
}

// ReadArchiveFile opens archivePath and calls ReadArchive.
func ReadArchiveFile(archivePath string) (*Manifest, []*pipelinedef.Definition, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()
	return ReadArchive(file, archivePath)
}
