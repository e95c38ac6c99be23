package mutation

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxAttachmentSize is the largest accepted upload in bytes.
const MaxAttachmentSize = 10 << 20

var (
	imageContentTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	documentContentTypes = map[string]bool{
		"application/pdf":    true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	}

	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

	errFileTooLarge = fmt.Errorf("must not exceed %d bytes", MaxAttachmentSize)
	errEmptyFile    = errors.New("cannot be empty")
	errNoBlobStore  = errors.New("attachments are not configured")
)

// AttachmentUpload is an incoming file for an apartment.
type AttachmentUpload struct {
	FileType    string
	FileName    string
	ContentType string
	Body        io.Reader
}

// AddAttachment stores the upload and records it against the apartment.
// Image file types accept pictures only; agreement and floorplan accept
// documents only.
func (g *Gateway) AddAttachment(ctx context.Context, apartmentID uuid.UUID, up AttachmentUpload) (*model.Attachment, error) {
	if g.blobs == nil {
		return nil, errNoBlobStore
	}

	fileType, err := model.ParseFileType(up.FileType)
	if err != nil {
		return nil, model.Invalid(fieldError("file_type", err))
	}
	contentType := strings.ToLower(strings.TrimSpace(up.ContentType))
	if !acceptsContentType(fileType, contentType) {
		return nil, model.Invalid(fieldError("content_type", fmt.Errorf("%q is not allowed for %s", up.ContentType, fileType)))
	}

	a, err := g.store.GetApartment(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("load apartment: %w", err)
	}
	if a == nil {
		return nil, &model.NotFoundError{Entity: "apartment", ID: apartmentID.String()}
	}

	// read one byte past the limit to detect oversize bodies
	data, err := io.ReadAll(io.LimitReader(up.Body, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, model.Invalid(fieldError("file", errEmptyFile))
	case len(data) > MaxAttachmentSize:
		return nil, model.Invalid(fieldError("file", errFileTooLarge))
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	name := SanitizeFileName(up.FileName)
	id := uuid.New()

	url, err := g.blobs.Put(ctx, AttachmentKey(apartmentID, fileType, id, name), bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	att := &model.Attachment{
		ID:          id,
		ApartmentID: apartmentID,
		FileType:    fileType,
		FileURL:     url,
		FileName:    name,
		FileSize:    int64(len(data)),
		MD5Hash:     &hash,
		CreatedAt:   g.now(),
	}
	if err := g.store.CreateAttachment(ctx, att); err != nil {
		g.removeBlob(ctx, url)
		return nil, fmt.Errorf("create attachment: %w", err)
	}

	g.logger.Info("attachment added",
		zap.Stringer("apartment_id", apartmentID),
		zap.String("file_type", string(fileType)),
		zap.Int64("size", att.FileSize),
	)
	return att, nil
}

// RemoveAttachment deletes an attachment owned by apartmentID. The stored
// file is removed best-effort after the row. No cached read covers
// attachments, so nothing is invalidated.
func (g *Gateway) RemoveAttachment(ctx context.Context, apartmentID, attachmentID uuid.UUID) error {
	att, err := g.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("load attachment: %w", err)
	}
	if att == nil || att.ApartmentID != apartmentID {
		return &model.NotFoundError{Entity: "attachment", ID: attachmentID.String()}
	}

	if err := g.store.DeleteAttachment(ctx, attachmentID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	g.removeBlob(ctx, att.FileURL)

	g.logger.Info("attachment removed", zap.Stringer("id", attachmentID), zap.Stringer("apartment_id", apartmentID))
	return nil
}

func acceptsContentType(fileType model.FileType, contentType string) bool {
	if fileType.IsImage() {
		return imageContentTypes[contentType]
	}
	return documentContentTypes[contentType]
}

// SanitizeFileName replaces anything outside letters, digits, dot and dash.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// AttachmentKey is the blob key of an attachment.
func AttachmentKey(apartmentID uuid.UUID, fileType model.FileType, id uuid.UUID, fileName string) string {
	return fmt.Sprintf("apartments/%s/%s/%s-%s", apartmentID, strings.ToLower(string(fileType)), id, fileName)
}
