package ckan

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/searchterms/internal/transport"
	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
)

var (
	_ host.Catalog      = (*Client)(nil)
	_ host.TaskStatuses = (*Client)(nil)
	_ host.Indexer      = (*Client)(nil)
)

// SiteUser returns the site user. The client authenticates with its
// configured key; the returned credential names the user work runs as.
func (c *Client) SiteUser(ctx context.Context) (host.Credential, error) {
	var user struct {
		Name string `json:"name"`
	}
	if err := c.call(ctx, "get_site_user", map[string]any{}, &user); err != nil {
		return host.Credential{}, err
	}
	return host.Credential{User: user.Name, IgnoreAuth: true}, nil
}

// ShowDataset calls package_show.
func (c *Client) ShowDataset(ctx context.Context, _ host.Credential, idOrName string) (*host.Dataset, error) {
	var d host.Dataset
	if err := c.call(ctx, "package_show", map[string]string{"id": idOrName}, &d); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("dataset", idOrName)
		}
		return nil, err
	}
	return &d, nil
}

// SearchDatasets calls package_search.
func (c *Client) SearchDatasets(ctx context.Context, _ host.Credential, q host.SearchQuery) (*host.SearchPage, error) {
	payload := map[string]any{
		"rows":            q.Rows,
		"start":           q.Start,
		"include_private": q.IncludePrivate,
	}
	if q.Query != "" {
		payload["q"] = q.Query
	}
	var page host.SearchPage
	if err := c.call(ctx, "package_search", payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PatchDataset calls package_patch with the given fields.
func (c *Client) PatchDataset(ctx context.Context, _ host.Credential, datasetID string, fields map[string]any) error {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["id"] = datasetID
	return c.call(ctx, "package_patch", payload, nil)
}

// CreateResource calls resource_create with a multipart file upload.
func (c *Client) CreateResource(ctx context.Context, _ host.Credential, upload host.Upload) (*host.Resource, error) {
	fields := map[string]string{
		"package_id": upload.DatasetID,
		"name":       upload.Name,
	}
	if upload.Format != "" {
		fields["format"] = upload.Format
	}
	if upload.MimeType != "" {
		fields["mimetype"] = upload.MimeType
	}
	for k, v := range upload.Extras {
		fields[k] = fmt.Sprint(v)
	}

	resp, err := c.http.PostMultipart(ctx, c.base+"resource_create", fields, transport.File{
		Field:    "upload",
		Filename: upload.Filename,
		Body:     upload.Body,
	})
	if err != nil {
		return nil, errors.WrapAPI("resource_create", 0, err)
	}
	var r host.Resource
	if err := c.decode(ctx, "resource_create", resp, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteResource calls resource_delete.
func (c *Client) DeleteResource(ctx context.Context, _ host.Credential, resourceID string) error {
	err := c.call(ctx, "resource_delete", map[string]string{"id": resourceID}, nil)
	if errors.IsNotFound(err) {
		return errors.NewNotFoundError("resource", resourceID)
	}
	return err
}

type taskStatusPayload struct {
	EntityID    string `json:"entity_id"`
	EntityType  string `json:"entity_type"`
	TaskType    string `json:"task_type"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	State       string `json:"state"`
	Error       string `json:"error"`
	LastUpdated string `json:"last_updated"`
}

const ckanTime = "2006-01-02T15:04:05.999999"

// UpdateTaskStatus calls task_status_update.
func (c *Client) UpdateTaskStatus(ctx context.Context, _ host.Credential, status host.TaskStatus) error {
	if status.EntityType == "" {
		status.EntityType = "resource"
	}
	if status.LastUpdated.IsZero() {
		status.LastUpdated = time.Now()
	}
	return c.call(ctx, "task_status_update", taskStatusPayload{
		EntityID:    status.EntityID,
		EntityType:  status.EntityType,
		TaskType:    status.TaskType,
		Key:         status.Key,
		Value:       status.Value,
		State:       string(status.State),
		Error:       status.Error,
		LastUpdated: status.LastUpdated.UTC().Format(ckanTime),
	}, nil)
}

// TaskStatus calls task_status_show.
func (c *Client) TaskStatus(ctx context.Context, _ host.Credential, entityID, taskType, key string) (*host.TaskStatus, error) {
	var raw taskStatusPayload
	err := c.call(ctx, "task_status_show", map[string]string{
		"entity_id": entityID,
		"task_type": taskType,
		"key":       key,
	}, &raw)
	if errors.IsNotFound(err) {
		return nil, errors.NewNotFoundError("task status", entityID)
	}
	if err != nil {
		return nil, err
	}
	status := &host.TaskStatus{
		EntityID:   raw.EntityID,
		EntityType: raw.EntityType,
		TaskType:   raw.TaskType,
		Key:        raw.Key,
		State:      host.TaskState(raw.State),
		Value:      raw.Value,
		Error:      raw.Error,
	}
	if t, err := time.Parse(ckanTime, raw.LastUpdated); err == nil {
		status.LastUpdated = t
	}
	return status, nil
}

// SubmitForIndexing submits the dataset's consolidated artifact to the
// configured index action. A dataset without an artifact has nothing to
// index.
func (c *Client) SubmitForIndexing(ctx context.Context, cred host.Credential, datasetID string) error {
	logger := logging.FromContext(ctx)
	if c.indexAction == "" {
		logger.Debug().Str("dataset_id", datasetID).Msg("Index action disabled")
		return nil
	}
	d, err := c.ShowDataset(ctx, cred, datasetID)
	if err != nil {
		return err
	}
	artifacts := d.ResourcesNamed(constants.TermsResourceName)
	if len(artifacts) == 0 {
		logger.Debug().Str("dataset_id", datasetID).Msg("No search terms resource to index")
		return nil
	}
	return c.call(ctx, c.indexAction, map[string]string{"resource_id": artifacts[0].ID}, nil)
}
