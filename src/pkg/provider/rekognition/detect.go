// Package rekognition detects plate text with AWS Rekognition DetectText.
package rekognition

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/provider"
)

type Client struct {
	api           rekognitioniface.RekognitionAPI
	minConfidence float64
}

/*
New opens an AWS session for the configured region (AWS_REGION when empty) with
the default credential chain.
*/
func New() (client *Client, e *xerr.Error) {
	region := Cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		return nil, xerr.NewError(fmt.Errorf("no region"), "AWS Rekognition is not configured", "AWS_REGION")
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, xerr.NewError(err, "unable to create AWS session", region)
	}
	return NewWithAPI(rekognition.New(sess)), nil
}

func NewWithAPI(api rekognitioniface.RekognitionAPI) *Client {
	return &Client{api: api, minConfidence: Cfg.MinConfidence}
}

func (c *Client) Name() string { return provider.NameRekognition }

// DetectText returns LINE detections only, confidence scaled to [0,1].
func (c *Client) DetectText(ctx context.Context, imageBytes []byte) (lines []provider.TextLine, e *xerr.Error) {
	tl.Log(tl.Info, palette.Blue, "%s %d bytes to %s", "Sending", len(imageBytes), "Rekognition DetectText")

	output, err := c.api.DetectTextWithContext(ctx, &rekognition.DetectTextInput{
		Image: &rekognition.Image{Bytes: imageBytes},
	})
	if err != nil {
		return nil, xerr.NewError(err, "Rekognition DetectText failed", len(imageBytes))
	}

	for _, detection := range output.TextDetections {
		if aws.StringValue(detection.Type) != rekognition.TextTypesLine {
			continue
		}
		text := strings.TrimSpace(aws.StringValue(detection.DetectedText))
		if text == "" {
			continue
		}
		line := provider.TextLine{Text: text}
		if detection.Confidence != nil {
			line.Confidence, line.HasConfidence = aws.Float64Value(detection.Confidence)/100, true
		}
		if line.HasConfidence && line.Confidence < c.minConfidence {
			tl.Log(tl.Verbose, palette.Purple, "Dropping line '%s' (confidence %.2f)", text, line.Confidence)
			continue
		}
		lines = append(lines, line)
	}

	tl.Log(tl.Info1, palette.Green, "%s returned %d line(s)", "Rekognition", len(lines))
	return lines, nil
}
