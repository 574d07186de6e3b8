package render

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/epcgen/internal/core"
)

// JSON renders contexts as a JSON array. Null values are written as null.
func JSON(contexts []core.Context, indent bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if contexts == nil {
			contexts = []core.Context{}
		}
		enc := json.NewEncoder(w)
		if indent {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(contexts)
	})
}
