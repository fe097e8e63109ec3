// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runstats

import (
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
)

// RootFolder names pipelines that are not in any folder.
const RootFolder = "root"

// Activity types counted separately in folder summaries.
const (
	ActivityCopy               = "Copy"
	ActivityDatabricksNotebook = "DatabricksNotebook"
)

// FolderSummary counts the pipelines and activities in one folder.
type FolderSummary struct {
	Folder                       string `json:"folder"`
	Pipelines                    int    `json:"pipelines"`
	Activities                   int    `json:"activities"`
	CopyActivities               int    `json:"copy_activities"`
	DatabricksNotebookActivities int    `json:"databricks_notebook_activities"`
}

// Folder returns the folder a pipeline is filed under.
func Folder(pipeline *armdatafactory.PipelineResource) string {
	if pipeline.Properties == nil || pipeline.Properties.Folder == nil ||
		pipeline.Properties.Folder.Name == nil || *pipeline.Properties.Folder.Name == "" {
		return RootFolder
	}
	return *pipeline.Properties.Folder.Name
}

// SummarizeFolders groups pipelines by folder. The result is sorted by
// folder name.
func SummarizeFolders(pipelines []*armdatafactory.PipelineResource) []FolderSummary {
	byFolder := make(map[string]*FolderSummary)
	for _, pipeline := range pipelines {
		if pipeline == nil {
			continue
		}
		folder := Folder(pipeline)
		summary, exists := byFolder[folder]
		if !exists {
			summary = &FolderSummary{Folder: folder}
			byFolder[folder] = summary
		}
		summary.Pipelines++

		if pipeline.Properties == nil {
			continue
		}
		for _, classification := range pipeline.Properties.Activities {
			if classification == nil {
				continue
			}
			summary.Activities++
			activity := classification.GetActivity()
			if activity.Type == nil {
				continue
			}
			switch *activity.Type {
			case ActivityCopy:
				summary.CopyActivities++
			case ActivityDatabricksNotebook:
				summary.DatabricksNotebookActivities++
			}
		}
	}

	result := make([]FolderSummary, 0, len(byFolder))
	for _, summary := range byFolder {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Folder < result[j].Folder })
	return result
}
