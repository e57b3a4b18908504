package checkout

import (
	"context"
	"fmt"
)

// PrescriptionFile is an uploaded prescription scan. The gate never
// inspects the content; it only forwards it to the asset store.
type PrescriptionFile struct {
	Name    string
	Content []byte
}

// AssetStore is the external binary store for prescription scans. It
// returns an opaque URL recorded verbatim on the order.
type AssetStore interface {
	UploadPrescription(ctx context.Context, f PrescriptionFile) (string, error)
}

// gatePrescriptions enforces the prescription requirement over the checkout
// lines. When no line requires a prescription the files are ignored and no
// upload happens; when one does, at least one file must be present and all
// files are uploaded.
func gatePrescriptions(ctx context.Context, store AssetStore, lines []line, files []PrescriptionFile) ([]string, error) {
	var required *line
	for i := range lines {
		if lines[i].product.IsPrescriptionNecessary {
			required = &lines[i]
			break
		}
	}

	if required == nil {
		return []string{}, nil
	}

	if len(files) == 0 {
		return nil, &PrescriptionRequiredError{ProductName: required.product.Name}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := store.UploadPrescription(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("upload prescription: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, nil
}
