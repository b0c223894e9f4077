package notice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePayload(t *testing.T) {
	t.Run("NilPayloadIsValid", func(t *testing.T) {
		assert.NoError(t, ValidatePayload("target", nil))
	})

	t.Run("CompletePayloadIsValid", func(t *testing.T) {
		err := ValidatePayload("target", &PayloadObject{
			Name:        "New comment",
			Description: "Someone commented on your post",
			Image:       "https://cdn.example.com/thumb.png",
			URL:         "https://example.com/posts/42",
		})
		assert.NoError(t, err)
	})

	t.Run("OptionalFieldsMayBeEmpty", func(t *testing.T) {
		err := ValidatePayload("action", &PayloadObject{
			Name:        "Open",
			Description: "Open the post",
		})
		assert.NoError(t, err)
	})

	t.Run("MissingNameIsRejected", func(t *testing.T) {
		err := ValidatePayload("target", &PayloadObject{Description: "no name"})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Equal(t, "target", payloadErr.Field)
		require.Len(t, payloadErr.Reasons, 1)
		assert.Contains(t, payloadErr.Reasons[0], "name is required")
	})

	t.Run("MissingDescriptionIsRejected", func(t *testing.T) {
		err := ValidatePayload("action", &PayloadObject{Name: "only name"})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Equal(t, "action", payloadErr.Field)
		assert.Contains(t, payloadErr.Reasons[0], "description is required")
	})

	t.Run("InvalidURLIsRejected", func(t *testing.T) {
		err := ValidatePayload("target", &PayloadObject{
			Name:        "n",
			Description: "d",
			URL:         "not a url",
		})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Contains(t, payloadErr.Reasons[0], "url must be a valid url")
	})

	t.Run("OverlongNameIsRejected", func(t *testing.T) {
		err := ValidatePayload("target", &PayloadObject{
			Name:        strings.Repeat("x", 121),
			Description: "d",
		})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Contains(t, payloadErr.Reasons[0], "name exceeds 120 characters")
	})

	t.Run("MultipleReasonsAreCollected", func(t *testing.T) {
		err := ValidatePayload("target", &PayloadObject{})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Len(t, payloadErr.Reasons, 2)
	})
}
