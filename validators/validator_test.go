package validators

import (
	"net/http"
	"testing"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequestDTOs(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&models.CreateCommentRequest{Content: "nice"}))
	assert.NoError(t, v.Validate(&models.CreateStoryRequest{StorageID: "k", MediaType: "video", Duration: 15}))

	err := v.Validate(&models.CreateCommentRequest{})
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "content is required", he.Message)

	err = v.Validate(&models.CreateStoryRequest{StorageID: "k", MediaType: "gif"})
	require.Error(t, err)
	assert.Contains(t, err.(*echo.HTTPError).Message, "mediatype must be one of [image video]")

	err = v.Validate(&models.UploadRequest{ContentType: "application/pdf"})
	assert.Error(t, err)
}
