package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"nuvem/internal/viewmodel"
	"nuvem/views/components"
)

// HomePage renders the form next to the latest result, if any.
func HomePage(data viewmodel.HomePage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1 class="title">`+templ.EscapeString(data.Title)+`</h1><div class="columns"><div class="column is-half">`); err != nil {
			return err
		}
		if data.Error != nil {
			if err := components.ErrorFragment(*data.Error).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := components.Form(data.Form).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div><div class="column is-half"><div id="result">`); err != nil {
			return err
		}
		if data.Result != nil {
			if err := components.Result(*data.Result).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div></div></div>`)
		return err
	})
	return components.Layout(data.Title, body)
}
