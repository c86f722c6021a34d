package invoicepdf

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alnah/invoicepdf/internal/fileutil"
	"github.com/alnah/invoicepdf/internal/pipeline"
)

// newComposer loads the template and stylesheet and builds the composer.
func newComposer(cfg rendererConfig, loader AssetLoader) (*pipeline.Composer, error) {
	css, err := resolveStyle(cfg.style, loader)
	if err != nil {
		return nil, err
	}

	tmpl, err := loader.LoadTemplate(cfg.template)
	if err != nil {
		return nil, fmt.Errorf("loading template %q: %w", cfg.template, err)
	}

	composer, err := pipeline.NewComposer(pipeline.ComposerConfig{
		Template:   tmpl,
		CSS:        css,
		DateFormat: cfg.dateFormat,
		Logos:      pipeline.LogoResolver{AllowFiles: cfg.localLogos},
		NoMinify:   cfg.noMinify,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompose, err)
	}
	return composer, nil
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
func resolveStyle(input string, loader AssetLoader) (string, error) {
	if input == "" {
		return "", nil
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- operator-provided path
		if err != nil {
			return "", fmt.Errorf("loading style file %q: %w", input, err)
		}
		return string(content), nil
	}

	// CSS content? (contains {)
	if fileutil.IsCSS(input) {
		return input, nil
	}

	css, err := loader.LoadStyle(input)
	if err != nil {
		return "", fmt.Errorf("loading style %q: %w", input, err)
	}
	return css, nil
}

// compose turns the request into the HTML document sent to the browser.
func (r *Renderer) compose(ctx context.Context, req *RenderRequest) (string, error) {
	doc, err := r.composer.Compose(ctx, toComposeInput(req))
	if err == nil {
		return doc, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if isLogoError(err) {
		return "", fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}
	return "", fmt.Errorf("%w: %v", ErrCompose, err)
}

func isLogoError(err error) bool {
	return errors.Is(err, pipeline.ErrLogoNotImage) ||
		errors.Is(err, pipeline.ErrLogoTooLarge) ||
		errors.Is(err, pipeline.ErrLogoRead) ||
		errors.Is(err, pipeline.ErrLogoNotAllowed)
}

// toComposeInput converts the public request to the pipeline's input.
func toComposeInput(req *RenderRequest) pipeline.Input {
	inv := req.Invoice
	items := make([]pipeline.ItemData, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = pipeline.ItemData(it)
	}

	return pipeline.Input{
		Invoice: pipeline.InvoiceData{
			Number:    inv.Number,
			Status:    inv.Status,
			IssueDate: inv.IssueDate,
			DueDate:   inv.DueDate,
			Customer: pipeline.PartyData{
				Name:    inv.Customer.Name,
				Address: inv.Customer.Address,
				Email:   inv.Customer.Email,
				Phone:   inv.Customer.Phone,
				TaxID:   inv.Customer.TaxID,
			},
			Items:    items,
			Subtotal: inv.Subtotal,
			Discount: inv.Discount,
			Tax:      inv.Tax,
			Total:    inv.Total,
			Notes:    inv.Notes,
			Terms:    inv.Terms,
		},
		Business: pipeline.PartyData{
			Name:    req.Business.Name,
			Address: req.Business.Address,
			Email:   req.Business.Email,
			Phone:   req.Business.Phone,
			TaxID:   req.Business.TaxID,
		},
		Logo:     req.Business.Logo,
		Currency: inv.Currency,
	}
}
