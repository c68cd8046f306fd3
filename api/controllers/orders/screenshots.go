package orders

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/screenshots"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

var allowedProofTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

// UploadScreenshot accepts a multipart proof-of-payment for a manual order.
func UploadScreenshot(svc screenshots.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "screenshots service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		maxBytes := int64(uploads.MaxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
				fmt.Sprintf("upload must be multipart and at most %dMB", uploads.MaxUploadMB)))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "proof file required"))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if _, ok := allowedProofTypes[strings.ToLower(contentType)]; !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "proof must be a jpeg, png, or pdf"))
			return
		}

		screenshot, err := svc.SubmitProof(r.Context(), screenshots.SubmitInput{
			OrderID:     orderID,
			UserID:      middleware.UserIDFromContext(r.Context()),
			FileName:    header.Filename,
			ContentType: contentType,
			Body:        file,
			ClaimedTxID: validators.SanitizeString(r.FormValue("transaction_id"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"screenshot_id":  screenshot.ID,
			"screenshot_url": screenshot.ImageURL,
			"status":         string(screenshot.Status),
		})
	}
}
