// Package vision recognizes text with Google Cloud Vision DOCUMENT_TEXT_DETECTION
package vision

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"

	"ocrjobs/internal/core/langs"
	perr "ocrjobs/internal/platform/errors"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// annotateFunc is the single RPC the client needs
type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// Client is a Recognizer backed by Cloud Vision
type Client struct {
	annotate annotateFunc
	close    func() error
}

// Credentials selects how the client authenticates; inline JSON wins over a file,
// and with neither the application default credentials are used
type Credentials struct {
	JSON string
	File string
}

// CredentialsFromEnv reads GOOGLE_CREDENTIALS and GOOGLE_APPLICATION_CREDENTIALS
func CredentialsFromEnv() Credentials {
	return Credentials{
		JSON: os.Getenv("GOOGLE_CREDENTIALS"),
		File: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}
}

// New dials the Vision API
func New(ctx context.Context, creds Credentials) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case creds.JSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(creds.JSON)))
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	}
	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, perr.WithOp(perr.Wrap(err, perr.ErrorCodeBackend, "vision: create client"), "cloud_ocr")
	}
	return &Client{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return c.BatchAnnotateImages(ctx, req)
		},
		close: c.Close,
	}, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Recognize sends img as PNG with the requested languages as hints. Confidence is
// the mean word confidence scaled to 0..100, 0 when no word carries one.
func (c *Client) Recognize(ctx context.Context, img image.Image, languages []string) (string, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "vision: encode image")
	}

	req := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: buf.Bytes()},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
	}
	if hints := langs.Hints(languages); len(hints) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: hints}
	}

	resp, err := c.annotate(ctx, &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}})
	if err != nil {
		return "", 0, perr.WithOp(perr.Wrap(err, perr.ErrorCodeBackend, "vision: annotate"), "cloud_ocr")
	}
	if len(resp.GetResponses()) == 0 {
		return "", 0, perr.WithOp(perr.Backendf("vision: empty response"), "cloud_ocr")
	}
	r := resp.GetResponses()[0]
	// a non-OK code is a failure even when the message is empty
	if e := r.GetError(); e.GetCode() != 0 {
		return "", 0, perr.WithOp(perr.Backendf("vision: code %d: %s", e.GetCode(), e.GetMessage()), "cloud_ocr")
	}

	full := r.GetFullTextAnnotation()
	return full.GetText(), meanWordConfidence(full), nil
}

// meanWordConfidence walks pages, blocks, paragraphs and words
func meanWordConfidence(a *visionpb.TextAnnotation) float64 {
	var sum float64
	n := 0
	for _, p := range a.GetPages() {
		for _, b := range p.GetBlocks() {
			for _, para := range b.GetParagraphs() {
				for _, w := range para.GetWords() {
					sum += float64(w.GetConfidence())
					n++
				}
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}
