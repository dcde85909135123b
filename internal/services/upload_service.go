// Package services provides the batch orchestrator: it walks the selected
// SharePoint items, drives the transfer engine, and writes preservation
// status back onto the source list items.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/penwern/curate-sharepoint-uploader/internal/constants"
	"github.com/penwern/curate-sharepoint-uploader/internal/logging"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
	"github.com/penwern/curate-sharepoint-uploader/internal/transfer"
)

// SourceClient is the subset of the Graph client the orchestrator needs.
type SourceClient interface {
	ListChildren(ctx context.Context, siteID, driveID, itemID string) ([]models.DriveItem, error)
	UpdateItemFields(ctx context.Context, siteID, driveID, itemID string, fields map[string]string) error
}

// DestinationClient covers folder creation, node metadata and both upload
// routes on the destination Curate site.
type DestinationClient interface {
	transfer.Destination
	CreateFolder(ctx context.Context, path string) (string, error)
	UpdateUserMeta(ctx context.Context, nodeUUID string, pairs map[string]string) error
}

// FileTransferrer executes one file transfer end to end.
type FileTransferrer interface {
	Transfer(ctx context.Context, dest transfer.Destination, spec transfer.Spec) models.TransferResult
}

// DestinationFactory builds a destination client scoped to one batch's
// Curate site and API key.
type DestinationFactory func(ctx context.Context, details models.CurateDetails) (DestinationClient, error)

// UploadService orchestrates upload batches. Items within a batch are
// processed sequentially; one item's failure never stops its siblings.
type UploadService struct {
	source         SourceClient
	transferrer    FileTransferrer
	newDestination DestinationFactory
	logger         *logging.Logger

	now func() time.Time
}

// NewUploadService creates the orchestrator.
func NewUploadService(source SourceClient, transferrer FileTransferrer, factory DestinationFactory) *UploadService {
	return &UploadService{
		source:         source,
		transferrer:    transferrer,
		newDestination: factory,
		logger:         logging.NewLogger("upload-service"),
		now:            time.Now,
	}
}

// RunBatch processes one accepted batch to completion. It is designed to run
// in its own goroutine after the accepting handler has already responded;
// errors are written to the log and onto the source items, never returned to
// a caller that could surface them.
func (s *UploadService) RunBatch(ctx context.Context, batch models.UploadBatch) {
	if len(batch.UploadItems) == 0 {
		s.logger.Warn().Msg("batch contains no items, nothing to do")
		return
	}

	s.logger.Info().
		Int("items", len(batch.UploadItems)).
		Str("site", batch.SharePointDetails.SiteID).
		Str("destination", batch.CurateDetails.SiteURL).
		Msg("starting upload batch")

	dest, err := s.newDestination(ctx, batch.CurateDetails)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build destination client")
		for _, item := range batch.UploadItems {
			s.setStatus(ctx, batch, item, fmt.Sprintf(constants.StatusFailedFmt, err))
		}
		return
	}

	run := &batchRun{
		svc:       s,
		dest:      dest,
		batch:     batch,
		container: constants.ContainerNamePrefix + s.now().UTC().Format(constants.ContainerNameTimeFormat),
		folders:   make(map[string]bool),
	}

	var failed int
	for _, item := range batch.UploadItems {
		s.setStatus(ctx, batch, item, constants.StatusInitiating)

		var itemErr error
		if item.IsFolder() {
			itemErr = run.walkFolder(ctx, item.ID, item.DriveID, item.Name)
		} else {
			itemErr = run.processFile(ctx, item, "")
		}

		if itemErr != nil {
			failed++
			s.logger.Error().Str("item", item.Name).Err(itemErr).Msg("item failed")
			s.setStatus(ctx, batch, item, fmt.Sprintf(constants.StatusFailedFmt, itemErr))
			continue
		}
		s.setStatus(ctx, batch, item, constants.StatusSuccess)
	}

	s.logger.Info().
		Str("container", run.container).
		Int("items", len(batch.UploadItems)).
		Int("failed", failed).
		Msg("upload batch finished")
}

// setStatus writes the preservation status onto the source list item. Status
// writes are best-effort: a failure is logged and the batch carries on.
func (s *UploadService) setStatus(ctx context.Context, batch models.UploadBatch, item models.UploadItem, status string) {
	listItemID := item.SPID
	if listItemID == "" {
		listItemID = item.ID
	}
	fields := map[string]string{constants.StatusFieldName: status}
	if err := s.source.UpdateItemFields(ctx, batch.SharePointDetails.SiteID, item.DriveID, listItemID, fields); err != nil {
		s.logger.Warn().
			Str("item", item.Name).
			Str("status", status).
			Err(err).
			Msg("failed to update preservation status")
	}
}

// batchRun carries the per-batch state: the destination client, the container
// folder name and which destination folders have been created so far.
type batchRun struct {
	svc       *UploadService
	dest      DestinationClient
	batch     models.UploadBatch
	container string
	folders   map[string]bool
}

// ensureFolder creates path on the destination once per run and tags the
// submitting user as contributor on the new node.
func (r *batchRun) ensureFolder(ctx context.Context, path string) error {
	if r.folders[path] {
		return nil
	}
	uuid, err := r.dest.CreateFolder(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to create folder %q: %w", path, err)
	}
	// Contributor tagging is best-effort, like status writes: an untagged
	// folder is preferable to a failed transfer.
	pairs := map[string]string{constants.ContributorNamespace: r.batch.UserInfo.Contributor()}
	if err := r.dest.UpdateUserMeta(ctx, uuid, pairs); err != nil {
		r.svc.logger.Warn().Str("path", path).Err(err).Msg("failed to tag contributor")
	}
	r.folders[path] = true
	return nil
}

// processFile transfers one file into the container, under parentFolder when
// the file came from a folder walk.
func (r *batchRun) processFile(ctx context.Context, item models.UploadItem, parentFolder string) error {
	if err := r.ensureFolder(ctx, r.container); err != nil {
		return err
	}

	path := r.container + "/" + item.Name
	if parentFolder != "" {
		path = r.container + "/" + parentFolder + "/" + item.Name
	}

	result := r.svc.transferrer.Transfer(ctx, r.dest, transfer.Spec{
		SiteID:       r.batch.SharePointDetails.SiteID,
		DriveID:      item.DriveID,
		ItemID:       item.ID,
		Path:         path,
		DeclaredSize: int64(item.FileSize),
	})
	if !result.Success {
		return result.Err
	}
	return nil
}

// walkFolder uploads a folder selection: it creates the folder under the
// container, then lists children. Child files are transferred into the
// folder; non-empty child folders recurse with the same container; empty
// child folders still get an empty destination folder. The walk stops at the
// first error, which RunBatch records on the selected item.
func (r *batchRun) walkFolder(ctx context.Context, itemID, driveID, name string) error {
	if err := r.ensureFolder(ctx, r.container); err != nil {
		return err
	}
	if err := r.ensureFolder(ctx, r.container+"/"+name); err != nil {
		return err
	}

	children, err := r.svc.source.ListChildren(ctx, r.batch.SharePointDetails.SiteID, driveID, itemID)
	if err != nil {
		return fmt.Errorf("failed to list folder %q: %w", name, err)
	}

	for _, child := range children {
		childDriveID := child.ParentReference.DriveID
		if childDriveID == "" {
			childDriveID = driveID
		}

		if child.IsFolder() {
			if child.HasChildren() {
				if err := r.walkFolder(ctx, child.ID, childDriveID, child.Name); err != nil {
					return err
				}
			} else if err := r.ensureFolder(ctx, r.container+"/"+child.Name); err != nil {
				return err
			}
			continue
		}

		file := models.UploadItem{
			ID:       child.ID,
			DriveID:  childDriveID,
			Name:     child.Name,
			FileSize: models.ByteSize(child.Size),
			Type:     models.ItemTypeFile,
		}
		if err := r.processFile(ctx, file, name); err != nil {
			return fmt.Errorf("failed to transfer %q: %w", child.Name, err)
		}
	}
	return nil
}
