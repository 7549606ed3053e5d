package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfinsight/internal/gcp"
	"github.com/Lllllllleong/pdfinsight/internal/models"
	"github.com/Lllllllleong/pdfinsight/internal/pdfdoc"
)

// PageInput is everything needed to analyse one rasterized page.
type PageInput struct {
	ImagePath        string
	PageNumber       int
	OriginalFilename string
	PageText         string
	Prompt           string
}

// PageOptions tunes a PageProcessor. Zero values select the defaults.
type PageOptions struct {
	MaxImageWidth int
	Timeout       time.Duration
	Now           func() time.Time
}

// PageProcessor runs the per-page pipeline: normalize the image, generate a
// response, embed the response and the page text, and persist the record.
type PageProcessor struct {
	inference     InferenceClient
	store         ResultStore
	maxImageWidth int
	timeout       time.Duration
	now           func() time.Time
}

func NewPageProcessor(inference InferenceClient, store ResultStore, opts PageOptions) *PageProcessor {
	p := &PageProcessor{
		inference:     inference,
		store:         store,
		maxImageWidth: opts.MaxImageWidth,
		timeout:       opts.Timeout,
		now:           opts.Now,
	}
	if p.maxImageWidth <= 0 {
		p.maxImageWidth = 2000
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run never returns an error: any failure is reported as a status=error outcome
// carrying the original page text.
func (p *PageProcessor) Run(ctx context.Context, in PageInput) (outcome models.PageOutcome) {
	logCtx := slog.With("originalFilename", in.OriginalFilename, "pageNumber", in.PageNumber)
	logCtx.Info("Processing page.")

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing page: %v", r)
			logCtx.Error("Page processing panicked.", "error", err)
			outcome = models.ErrorOutcome(in.OriginalFilename, in.PageNumber, in.PageText, err)
		}
	}()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	outcome, err := p.process(ctx, logCtx, in)
	if err != nil {
		logCtx.Error("Page processing failed.", "error", err)
		return models.ErrorOutcome(in.OriginalFilename, in.PageNumber, in.PageText, err)
	}
	logCtx.Info("Page processed and saved.", "responseFormat", outcome.ModelResponse.Kind)
	return outcome
}

func (p *PageProcessor) process(ctx context.Context, logCtx *slog.Logger, in PageInput) (models.PageOutcome, error) {
	raw, err := os.ReadFile(in.ImagePath)
	if err != nil {
		return models.PageOutcome{}, &AdapterError{Stage: "read page image", Err: err}
	}
	image, err := pdfdoc.NormalizeImage(raw, p.maxImageWidth)
	if err != nil {
		return models.PageOutcome{}, &AdapterError{Stage: "normalize page image", Err: err}
	}

	prompt := in.Prompt
	if prompt == "" {
		prompt = gcp.DefaultPrompt
	}
	generated, err := p.inference.Generate(ctx, prompt, image)
	if err != nil {
		return models.PageOutcome{}, asInferenceError("generate", err)
	}

	cleaned := StripCodeFences(generated)
	response := ParseModelResponse(cleaned)
	if !response.IsParsed() {
		logCtx.Warn("Model response is not valid JSON or JSON5; keeping raw text.")
	}

	var responseEmbedding, textEmbedding []float64
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		responseEmbedding, err = p.embed(gctx, cleaned)
		return err
	})
	eg.Go(func() error {
		var err error
		textEmbedding, err = p.embed(gctx, in.PageText)
		return err
	})
	if err := eg.Wait(); err != nil {
		return models.PageOutcome{}, asInferenceError("embed", err)
	}

	outcome := models.PageOutcome{
		OriginalFilename:  in.OriginalFilename,
		PageNumber:        in.PageNumber,
		Status:            models.StatusSuccess,
		ModelResponse:     response,
		ResponseEmbedding: responseEmbedding,
		OriginalText:      in.PageText,
		TextEmbedding:     textEmbedding,
	}

	record, err := models.NewPageRecord(outcome, p.now())
	if err != nil {
		return models.PageOutcome{}, &PersistenceError{Err: err}
	}
	if err := p.store.Insert(ctx, record); err != nil {
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return models.PageOutcome{}, err
		}
		return models.PageOutcome{}, &PersistenceError{Err: err}
	}
	return outcome, nil
}

// embed skips the remote call for empty text.
func (p *PageProcessor) embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return []float64{}, nil
	}
	return p.inference.Embed(ctx, text)
}

func asInferenceError(op string, err error) error {
	var ierr *InferenceError
	if errors.As(err, &ierr) {
		return err
	}
	return &InferenceError{Op: op, Err: err}
}
