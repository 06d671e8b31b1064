package rod_test

import (
	"testing"

	"github.com/akarpov/shelfwatch"
	"github.com/akarpov/shelfwatch/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCartPayload(t *testing.T) {
	t.Parallel()

	t.Run("extracts line items from embedded state", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><script>window.state = JSON.parse('{&quot;trackingPayloads&quot;:{},&quot;shared&quot;:{&quot;itemsTrackingInfo&quot;:[{&quot;stockMaxQty&quot;:7,&quot;finalPrice&quot;:1490}]}}')</script></body></html>`

		lines, err := rod.ParseCartPayload(html)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 7, lines[0].StockMaxQty)
		assert.Equal(t, 1490, lines[0].FinalPrice)
	})

	t.Run("unescapes doubled backslashes and newlines", func(t *testing.T) {
		t.Parallel()

		html := `JSON.parse('{&quot;trackingPayloads&quot;:{&quot;note&quot;:&quot;a\\\\tb&quot;},\n&quot;shared&quot;:{&quot;itemsTrackingInfo&quot;:[{&quot;stockMaxQty&quot;:1,&quot;finalPrice&quot;:100}]}}')`

		lines, err := rod.ParseCartPayload(html)
		require.NoError(t, err)
		require.Len(t, lines, 1)
	})

	t.Run("payload not rendered yet", func(t *testing.T) {
		t.Parallel()

		_, err := rod.ParseCartPayload("<html><body>loading...</body></html>")
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EPARSING, shelfwatch.ErrorCode(err))
	})

	t.Run("payload without line items", func(t *testing.T) {
		t.Parallel()

		html := `JSON.parse('{&quot;trackingPayloads&quot;:{},&quot;other&quot;:1}')`

		_, err := rod.ParseCartPayload(html)
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EPARSING, shelfwatch.ErrorCode(err))
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()

		html := `JSON.parse('{&quot;trackingPayloads&quot;:}')`

		_, err := rod.ParseCartPayload(html)
		require.Error(t, err)
		assert.Equal(t, shelfwatch.EPARSING, shelfwatch.ErrorCode(err))
	})
}
