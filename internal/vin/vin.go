// Package vin validates vehicle identification numbers and decodes them
// through the external vehicle-identity lookup service.
package vin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrLookupFailed  = errors.New("lookup failed")
	ErrNoData        = errors.New("no data")
)

const vinLength = 17

// Normalize uppercases and trims a candidate VIN.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateFormat checks that a normalized VIN is exactly 17 characters of
// digits and letters excluding I, O and Q. Check-digit correctness is NOT
// verified; this is a format check only.
func ValidateFormat(s string) error {
	if len(s) != vinLength {
		return fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidFormat, vinLength, len(s))
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z' && r != 'I' && r != 'O' && r != 'Q':
		default:
			return fmt.Errorf("%w: illegal character %q", ErrInvalidFormat, r)
		}
	}
	return nil
}

// Decoder calls the external identity-lookup service for a valid VIN.
type Decoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewDecoder creates a decoder using the VIN_DECODER_URL environment variable,
// falling back to the public NHTSA vPIC endpoint.
func NewDecoder() *Decoder {
	base := os.Getenv("VIN_DECODER_URL")
	if base == "" {
		base = "https://vpic.nhtsa.dot.gov/api/vehicles/DecodeVinValues"
	}
	return &Decoder{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewDecoderWithClient creates a decoder against an explicit endpoint and client.
func NewDecoderWithClient(baseURL string, client *http.Client) *Decoder {
	return &Decoder{baseURL: baseURL, httpClient: client}
}

// decodeResponse mirrors the flat vPIC DecodeVinValues payload.
type decodeResponse struct {
	Count   int    `json:"Count"`
	Message string `json:"Message"`
	Results []struct {
		Make            string `json:"Make"`
		Model           string `json:"Model"`
		ModelYear       string `json:"ModelYear"`
		EngineModel     string `json:"EngineModel"`
		FuelTypePrimary string `json:"FuelTypePrimary"`
		DriveType       string `json:"DriveType"`
		VehicleType     string `json:"VehicleType"`
		BodyClass       string `json:"BodyClass"`
		ErrorCode       string `json:"ErrorCode"`
		ErrorText       string `json:"ErrorText"`
	} `json:"Results"`
}

// Decode validates a VIN and resolves it to a VehicleIdentity. Malformed
// input fails with ErrInvalidFormat before any external call; transport or
// non-2xx failures map to ErrLookupFailed; a response carrying a provider
// error code and none of make/model/year maps to ErrNoData. Fields the
// provider omitted stay zero-valued.
func (d *Decoder) Decode(ctx context.Context, candidate string) (*models.VehicleIdentity, error) {
	vin := Normalize(candidate)
	if err := ValidateFormat(vin); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s?format=json", strings.TrimRight(d.baseURL, "/"), url.PathEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: decoder returned status %d", ErrLookupFailed, resp.StatusCode)
	}

	var payload decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: empty result set", ErrNoData)
	}

	r := payload.Results[0]
	year := 0
	if r.ModelYear != "" {
		if y, convErr := strconv.Atoi(r.ModelYear); convErr == nil {
			year = y
		}
	}

	errorCode := 0
	if r.ErrorCode != "" {
		// vPIC reports "0" for clean decodes; anything else flags a problem.
		if code, convErr := strconv.Atoi(strings.SplitN(r.ErrorCode, ",", 2)[0]); convErr == nil {
			errorCode = code
		}
	}

	if (r.Make == "" || r.Model == "" || year == 0) && errorCode != 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, r.ErrorText)
	}

	log.WithFields(log.Fields{
		"vin":   vin,
		"make":  r.Make,
		"model": r.Model,
		"year":  year,
	}).Debug("Decoded VIN")

	return &models.VehicleIdentity{
		VIN:         vin,
		Make:        r.Make,
		Model:       r.Model,
		Year:        year,
		EngineModel: r.EngineModel,
		FuelType:    r.FuelTypePrimary,
		DriveType:   r.DriveType,
		VehicleType: r.VehicleType,
		BodyClass:   r.BodyClass,
	}, nil
}
