// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Mario manages the pipelines of one Azure Data Factory. It uploads
// pipeline definitions from local JSON files, starts and follows runs,
// and summarizes run history (pipeline, runs), with helpers for the
// user config file (config) and for seeding test data (blob).
package main
