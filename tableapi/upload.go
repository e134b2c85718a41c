package tableapi

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// storeUpload validates a file against the configured policy and stores it
// under a uuid-derived name. The client-supplied filename only contributes
// the extension, so it can neither traverse paths nor overwrite files.
func (d *Dispatcher) storeUpload(ctx *gin.Context, file *multipart.FileHeader) (string, string, error) {
	policy := d.Config.Upload
	if policy.Dir == "" {
		return "", "", &UploadError{Reason: "uploads are not configured"}
	}
	if policy.MaxBytes > 0 && file.Size > policy.MaxBytes {
		return "", "", &UploadError{Reason: "file too large"}
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !extensionAllowed(ext, policy.AllowedExtensions) {
		return "", "", &UploadError{Reason: "file extension not allowed"}
	}

	if err := os.MkdirAll(policy.Dir, 0777); err != nil {
		return "", "", errors.Wrap(err, "create upload dir")
	}
	name := uuid.New().String() + ext
	target := filepath.Join(policy.Dir, name)
	if err := ctx.SaveUploadedFile(file, target); err != nil {
		return "", "", errors.Wrap(err, "store upload")
	}
	return target, name, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, entry := range allowed {
		if !strings.HasPrefix(entry, ".") {
			entry = "." + entry
		}
		if strings.EqualFold(entry, ext) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) uploadFile(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		respondError(ctx, &UploadError{Reason: "no file submitted"})
		return
	}
	path, name, err := d.storeUpload(ctx, file)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondSuccess(ctx, "file uploaded", gin.H{"file_path": path, "file_name": name})
}
