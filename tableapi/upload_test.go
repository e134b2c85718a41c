package tableapi

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDispatcherUploadFile verifies the standalone upload action stores the
// file under a generated name inside the configured directory
func TestDispatcherUploadFile(t *testing.T) {
	d := setupUsersWidget(t)

	w := performMultipart(d, map[string]string{ParamAction: "upload_file"}, "file", "portrait.PNG", []byte("fake image bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := envelope(t, w)
	require.Equal(t, true, body["success"])

	name := body["file_name"].(string)
	path := body["file_path"].(string)
	assert.True(t, strings.HasSuffix(name, ".png"), name)
	assert.NotContains(t, name, "portrait")
	assert.True(t, strings.HasPrefix(path, d.Config.Upload.Dir))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

// TestDispatcherUploadRejections verifies policy enforcement: extension
// allow-list, size limit, unconfigured uploads and the missing file part
func TestDispatcherUploadRejections(t *testing.T) {
	d := setupUsersWidget(t)

	w := performMultipart(d, map[string]string{ParamAction: "upload_file"}, "file", "payload.exe", []byte("mz"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, envelope(t, w)["message"], "extension")

	w = performMultipart(d, map[string]string{ParamAction: "upload_file"}, "file", "noext", []byte("data"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	small := *d.Config
	small.Upload.MaxBytes = 4
	w = performMultipart(NewDispatcher(&small, d.Schema), map[string]string{ParamAction: "upload_file"}, "file", "big.png", []byte("more than four bytes"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, envelope(t, w)["message"], "too large")

	unconfigured := *d.Config
	unconfigured.Upload = UploadPolicy{}
	w = performMultipart(NewDispatcher(&unconfigured, d.Schema), map[string]string{ParamAction: "upload_file"}, "file", "pic.png", []byte("data"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performMultipart(d, map[string]string{ParamAction: "upload_file"}, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDispatcherAddRecordWithUpload verifies file columns get the stored path
// merged into the validated field set
func TestDispatcherAddRecordWithUpload(t *testing.T) {
	d := setupUsersWidget(t)

	w := performMultipart(d, map[string]string{
		ParamAction: "add_record",
		"name":      "Grace",
		"email":     "grace@example.com",
	}, "avatar", "selfie.jpg", []byte("jpegdata"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := envelope(t, w)
	require.Equal(t, true, body["success"])

	w = performAjax(d, url.Values{ParamAction: {"fetch_record"}, ParamID: {"7"}})
	record := envelope(t, w)["data"].(map[string]interface{})
	avatar := record["avatar"].(string)
	assert.True(t, strings.HasPrefix(avatar, d.Config.Upload.Dir))
	assert.True(t, strings.HasSuffix(avatar, ".jpg"))
	_, err := os.Stat(avatar)
	assert.NoError(t, err)
}

// TestExtensionAllowed verifies dot normalization and case folding
func TestExtensionAllowed(t *testing.T) {
	allowed := []string{"png", ".jpg"}
	assert.True(t, extensionAllowed(".png", allowed))
	assert.True(t, extensionAllowed(".jpg", allowed))
	assert.False(t, extensionAllowed(".gif", allowed))
	assert.False(t, extensionAllowed("", allowed))
}
