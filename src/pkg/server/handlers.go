package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/preprocess"
	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/vehicle"
)

type plateRequest struct {
	ImageBase64 string `json:"image_base64"`
	Region      string `json:"region"`
	Notes       string `json:"notes"`
}

type requestError struct {
	status  int
	message string
}

func (r *requestError) Error() string { return r.message }

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

type readResponse struct {
	Success    bool             `json:"success"`
	Plate      *string          `json:"plate"`
	Confidence float64          `json:"confidence"`
	Source     string           `json:"source,omitempty"`
	Region     string           `json:"region"`
	Message    string           `json:"message"`
	Vehicle    *vehicle.Vehicle `json:"vehicle"`
	Authorized bool             `json:"authorized"`
	ElapsedMs  int64            `json:"elapsed_ms"`
}

type accessResponse struct {
	Success     bool             `json:"success"`
	Plate       *string          `json:"plate"`
	Confidence  float64          `json:"confidence"`
	Source      string           `json:"source,omitempty"`
	Outcome     vehicle.Outcome  `json:"outcome"`
	Registered  bool             `json:"registered"`
	Authorized  bool             `json:"authorized"`
	RecordID    string           `json:"record_id"`
	AlertRaised bool             `json:"alert_raised"`
	Vehicle     *vehicle.Vehicle `json:"vehicle"`
	Message     string           `json:"message"`
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

func platePointer(result recognize.Result) *string {
	if !result.Found {
		return nil
	}
	plateText := result.Plate
	return &plateText
}

func failureMessage(result recognize.Result) string {
	switch result.Failure {
	case recognize.FailureImageDecode:
		return "The image could not be decoded"
	case recognize.FailureNoTextDetected:
		return "No text was detected on the image"
	default:
		return "No valid plate was detected"
	}
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"success": false, "error": message})
}

func respondRequestError(c echo.Context, err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return errorJSON(c, reqErr.status, reqErr.message)
	}
	return errorJSON(c, http.StatusBadRequest, err.Error())
}

/*
readImage takes the image from a multipart "image" file or from a JSON body
with "image_base64" (a data URL prefix is accepted). The bytes must decode
as an image.
*/
func (s *Server) readImage(c echo.Context) (imageBytes []byte, request plateRequest, err error) {
	maxBytes := s.cfg.MaxUploadBytes
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		fileHeader, formErr := c.FormFile("image")
		if formErr != nil {
			return nil, request, badRequest("multipart field 'image' is required")
		}
		if maxBytes > 0 && fileHeader.Size > maxBytes {
			return nil, request, &requestError{status: http.StatusRequestEntityTooLarge, message: "image is too large"}
		}
		file, openErr := fileHeader.Open()
		if openErr != nil {
			return nil, request, badRequest("cannot open uploaded image")
		}
		defer file.Close()
		imageBytes, err = io.ReadAll(file)
		if err != nil {
			return nil, request, badRequest("cannot read uploaded image")
		}
		request.Region = c.FormValue("region")
		request.Notes = c.FormValue("notes")
	} else {
		body := c.Request().Body
		if maxBytes > 0 {
			// base64 inflates by 4/3
			body = http.MaxBytesReader(c.Response(), body, maxBytes*4/3+4096)
		}
		decodeErr := json.NewDecoder(body).Decode(&request)
		if decodeErr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(decodeErr, &tooLarge) {
				return nil, request, &requestError{status: http.StatusRequestEntityTooLarge, message: "image is too large"}
			}
			return nil, request, badRequest("send a multipart 'image' file or a JSON body with 'image_base64'")
		}
		imageBytes, err = decodeBase64Image(request.ImageBase64)
		if err != nil {
			return nil, request, err
		}
	}

	if len(imageBytes) == 0 {
		return nil, request, badRequest("image is empty")
	}
	if maxBytes > 0 && int64(len(imageBytes)) > maxBytes {
		return nil, request, &requestError{status: http.StatusRequestEntityTooLarge, message: "image is too large"}
	}
	_, e := preprocess.DecodeImage(imageBytes)
	if e != nil {
		return nil, request, badRequest("invalid image file")
	}
	return imageBytes, request, nil
}

func decodeBase64Image(encoded string) (imageBytes []byte, err error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, badRequest("'image_base64' is required")
	}
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 {
			return nil, badRequest("malformed data URL")
		}
		encoded = encoded[comma+1:]
	}
	encoded = strings.Join(strings.Fields(encoded), "")

	imageBytes, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		imageBytes, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
	}
	if err != nil {
		return nil, badRequest("'image_base64' is not valid base64")
	}
	return imageBytes, nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRead(c echo.Context) error {
	imageBytes, request, err := s.readImage(c)
	if err != nil {
		return respondRequestError(c, err)
	}
	ctx := c.Request().Context()

	region := request.Region
	if region == "" {
		region = s.cfg.Region
	}
	result := s.deps.Reader.Recognize(ctx, imageBytes, region)

	response := readResponse{
		Success:    result.Found,
		Plate:      platePointer(result),
		Confidence: round3(result.Confidence),
		Source:     result.Source,
		Region:     result.Region,
		Message:    failureMessage(result),
		ElapsedMs:  result.Elapsed.Milliseconds(),
	}
	if result.Found {
		response.Message = "Plate recognized"
		if s.deps.Registry != nil {
			registered, found, e := s.deps.Registry.FindByPlate(ctx, result.Plate)
			if e != nil {
				tl.Log(tl.Warning, palette.Yellow, "Vehicle lookup for '%s' %s: %v", result.Plate, "failed", e)
			} else if found {
				response.Vehicle = &registered
				response.Authorized = registered.IsAuthorized(timeNow())
			}
		}
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleAccess(c echo.Context) error {
	if s.deps.Gate == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "access control is not configured")
	}
	imageBytes, request, err := s.readImage(c)
	if err != nil {
		return respondRequestError(c, err)
	}

	decision, e := s.deps.Gate.Check(c.Request().Context(), imageBytes, request.Notes)
	if e != nil {
		tl.Log(tl.Error, palette.Red, "Gate check %s: %v", "failed", e)
		return errorJSON(c, http.StatusInternalServerError, "access check failed")
	}

	result := decision.Result
	response := accessResponse{
		Success:     result.Found,
		Plate:       platePointer(result),
		Confidence:  round3(result.Confidence),
		Source:      result.Source,
		Outcome:     decision.Outcome,
		Registered:  decision.Registered,
		Authorized:  decision.Authorized,
		RecordID:    decision.RecordID,
		AlertRaised: decision.AlertRaised,
		Vehicle:     decision.Vehicle,
	}
	switch decision.Outcome {
	case vehicle.OutcomeGranted:
		response.Message = "Access granted"
	case vehicle.OutcomeDenied:
		response.Message = "Access denied: vehicle not authorized"
	default:
		response.Message = failureMessage(result)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Reader.Status())
}

func (s *Server) handleRecentAccess(c echo.Context) error {
	if s.deps.Registry == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "access log is not configured")
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return errorJSON(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	records, e := s.deps.Registry.RecentAccess(c.Request().Context(), limit)
	if e != nil {
		tl.Log(tl.Error, palette.Red, "Recent access query %s: %v", "failed", e)
		return errorJSON(c, http.StatusInternalServerError, "cannot read access log")
	}
	if records == nil {
		records = []vehicle.AccessRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"records": records})
}
