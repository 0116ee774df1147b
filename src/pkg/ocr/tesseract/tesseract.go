// Package tesseract is the gosseract (cgo) implementation of ocr.Engine.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/preprocess"
)

/*
Engine reads plates with the linked Tesseract library. A gosseract client is
not safe for concurrent use, so every call gets its own client from newClient.
*/
type Engine struct {
	language        string
	whitelist       string
	useDictionaries bool
	tessdataPrefix  string
	newClient       func() *gosseract.Client
}

var _ ocr.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		language:        Cfg.Language,
		whitelist:       Cfg.Whitelist,
		useDictionaries: Cfg.UseDictionaries,
		tessdataPrefix:  Cfg.TessdataPrefix,
		newClient:       gosseract.NewClient,
	}
}

// Version returns the linked Tesseract version, empty when unavailable.
func Version() (version string) {
	defer func() {
		if recover() != nil {
			version = ""
		}
	}()
	return gosseract.Version()
}

func (t *Engine) Available() bool { return Version() != "" }

func (t *Engine) Version() string { return Version() }

/*
configure prepares a fresh client for one plate read: language, A-Z0-9
whitelist, dictionaries off and the requested page segmentation mode.
*/
func (t *Engine) configure(client *gosseract.Client, img *image.Gray, psm int) (e *xerr.Error) {
	if t.tessdataPrefix != "" {
		client.TessdataPrefix = t.tessdataPrefix
	}

	err := client.SetLanguage(t.language)
	if err != nil {
		return xerr.NewError(err, fmt.Sprintf("unable to client.SetLanguage(\"%s\")", t.language), psm)
	}

	if t.whitelist != "" {
		err = client.SetWhitelist(t.whitelist)
		if err != nil {
			return xerr.NewError(err, "unable to client.SetWhitelist", t.whitelist)
		}
	}

	if !t.useDictionaries {
		err = client.SetVariable("load_system_dawg", "false")
		if err != nil {
			return xerr.NewError(err, "unable to SetVariable(load_system_dawg,\"false\")", psm)
		}
		err = client.SetVariable("load_freq_dawg", "false")
		if err != nil {
			return xerr.NewError(err, "unable to SetVariable(load_freq_dawg,\"false\")", psm)
		}
	}

	err = client.SetPageSegMode(gosseract.PageSegMode(psm))
	if err != nil {
		return xerr.NewError(err, "unable to client.SetPageSegMode", psm)
	}

	imageBytes, e := preprocess.EncodePNG(img)
	if e != nil {
		return e
	}
	err = client.SetImageFromBytes(imageBytes)
	if err != nil {
		return xerr.NewError(err, "unable to client.SetImageFromBytes", len(imageBytes))
	}
	return nil
}

// Text runs OCR on img and returns the raw text.
func (t *Engine) Text(ctx context.Context, img *image.Gray, psm int) (text string, e *xerr.Error) {
	if err := ctx.Err(); err != nil {
		return "", xerr.NewError(err, "OCR cancelled before start", psm)
	}

	client := t.newClient()
	defer func() {
		_ = client.Close()
	}()

	e = t.configure(client, img, psm)
	if e != nil {
		return "", e
	}

	text, ocrErr := client.Text()
	if ocrErr != nil {
		return "", xerr.NewError(ocrErr, "unable to run OCR on image", psm)
	}

	tl.Log(tl.Verbose, palette.Cyan, "OCR (psm %d) read '%s'", psm, strings.TrimSpace(text))
	return text, nil
}

// Words runs OCR on img and returns every word with its confidence.
func (t *Engine) Words(ctx context.Context, img *image.Gray, psm int) (words []ocr.Word, e *xerr.Error) {
	if err := ctx.Err(); err != nil {
		return nil, xerr.NewError(err, "OCR cancelled before start", psm)
	}

	client := t.newClient()
	defer func() {
		_ = client.Close()
	}()

	e = t.configure(client, img, psm)
	if e != nil {
		return nil, e
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, xerr.NewError(err, "unable to client.GetBoundingBoxes(RIL_WORD)", psm)
	}

	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		words = append(words, ocr.Word{Text: word, Confidence: box.Confidence})
	}

	tl.Log(tl.Verbose, palette.Cyan, "OCR (psm %d) found '%d' words, mean confidence %.1f", psm, len(words), ocr.MeanConfidence(words))
	return words, nil
}
