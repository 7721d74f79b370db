package vin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		vin     string
		wantErr bool
	}{
		{"valid vin", "1HGBH41JXMN109186", false},
		{"valid all digits and letters", "5YJSA1E26MF000001", false},
		{"too short", "1HGBH41JXMN10918", true},
		{"too long", "1HGBH41JXMN1091866", true},
		{"contains I", "IHGBH41JXMN109186", true},
		{"contains O", "1HGBH41JXMN1O9186", true},
		{"contains Q", "1HGBH41JXMN10918Q", true},
		{"lowercase rejected before normalize", "1hgbh41jxmn109186", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.vin)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1HGBH41JXMN109186", Normalize("  1hgbh41jxmn109186 "))
}

func TestDecodeInvalidFormatSkipsLookup(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	d := NewDecoderWithClient(srv.URL, srv.Client())
	_, err := d.Decode(context.Background(), "not-a-vin")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.False(t, called, "decoder must not call the lookup service for malformed input")
}

func TestDecodeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Count":1,"Results":[{
			"Make":"HONDA","Model":"Civic","ModelYear":"2018",
			"FuelTypePrimary":"Gasoline","VehicleType":"PASSENGER CAR",
			"BodyClass":"Sedan/Saloon","ErrorCode":"0"}]}`)
	}))
	defer srv.Close()

	d := NewDecoderWithClient(srv.URL, srv.Client())
	identity, err := d.Decode(context.Background(), "1hgbh41jxmn109186")
	assert.NoError(t, err)
	assert.Equal(t, "1HGBH41JXMN109186", identity.VIN)
	assert.Equal(t, "HONDA", identity.Make)
	assert.Equal(t, "Civic", identity.Model)
	assert.Equal(t, 2018, identity.Year)
	assert.Equal(t, "Sedan/Saloon", identity.BodyClass)
}

func TestDecodePartialFieldsStayUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Count":1,"Results":[{
			"Make":"FORD","Model":"F-150","ModelYear":"2015","ErrorCode":"0"}]}`)
	}))
	defer srv.Close()

	d := NewDecoderWithClient(srv.URL, srv.Client())
	identity, err := d.Decode(context.Background(), "1FTFW1ET5EKE00001")
	assert.NoError(t, err)
	assert.Empty(t, identity.FuelType)
	assert.Empty(t, identity.BodyClass)
	assert.Empty(t, identity.DriveType)
}

func TestDecodeLookupFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDecoderWithClient(srv.URL, srv.Client())
	_, err := d.Decode(context.Background(), "1HGBH41JXMN109186")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestDecodeNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Count":1,"Results":[{
			"Make":"","Model":"","ModelYear":"",
			"ErrorCode":"11","ErrorText":"11 - Incorrect Model Year"}]}`)
	}))
	defer srv.Close()

	d := NewDecoderWithClient(srv.URL, srv.Client())
	_, err := d.Decode(context.Background(), "1HGBH41JXMN109186")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "Incorrect Model Year")
}
