package templates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	folderMIME = "application/vnd.google-apps.folder"
	htmlMIME   = "text/html"
	// maxTemplateBytes caps a single download.
	maxTemplateBytes = 2 << 20
)

// DriveLoader reads templates stored as text/html files inside a named
// Google Drive folder.
type DriveLoader struct {
	svc    *drive.Service
	folder string
}

// NewDriveLoader creates a loader for the folder named folder.
func NewDriveLoader(svc *drive.Service, folder string) *DriveLoader {
	return &DriveLoader{svc: svc, folder: folder}
}

func (l *DriveLoader) Load(ctx context.Context, name string) (string, error) {
	folderID, err := l.find(ctx, fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escape(l.folder), folderMIME))
	if err != nil {
		return "", err
	}
	if folderID == "" {
		return "", fmt.Errorf("%w: folder %q", ErrNotFound, l.folder)
	}

	fileID, err := l.find(ctx, fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escape(folderID), escape(name), htmlMIME))
	if err != nil {
		return "", err
	}
	if fileID == "" {
		return "", fmt.Errorf("%w: %q in folder %q", ErrNotFound, name, l.folder)
	}

	resp, err := l.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", classify("download template", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading template: %v", ErrUnavailable, err)
	}
	if len(b) > maxTemplateBytes {
		return "", fmt.Errorf("%w: %q exceeds %d bytes", ErrUnavailable, name, maxTemplateBytes)
	}
	return string(b), nil
}

func (l *DriveLoader) find(ctx context.Context, q string) (string, error) {
	list, err := l.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", classify("list drive files", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// Compile-time interface check
var _ Loader = (*DriveLoader)(nil)
